package data

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestFindVitals(t *testing.T) {
	db := setUpDatabase(t)

	record, err := FindVitals(db, "alys")
	if err != nil {
		t.Fatalf("FindVitals() error = %v", err)
	}
	if record != nil {
		t.Fatalf("expected no vitals record, got %+v", record)
	}

	seeded := &PlayerVitalsRecord{
		Identity:   "alys",
		Health:     17,
		MaxHealth:  20,
		Hunger:     12,
		MaxHunger:  20,
		Saturation: 3,
		DeathCount: 2,
	}
	if err := UpsertVitals(db, seeded); err != nil {
		t.Fatalf("UpsertVitals() error = %v", err)
	}

	record, err = FindVitals(db, "alys")
	if err != nil {
		t.Fatalf("FindVitals() error = %v", err)
	}
	if diff := cmp.Diff(seeded, record,
		cmpopts.IgnoreFields(PlayerVitalsRecord{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("vitals record did not match expected; diff:\n%s", diff)
	}
}

func TestUpsertVitalsUpdatesExistingRow(t *testing.T) {
	db := setUpDatabase(t)

	record := &PlayerVitalsRecord{
		Identity:  "rudo",
		Health:    20,
		MaxHealth: 20,
		Hunger:    20,
		MaxHunger: 20,
	}
	if err := UpsertVitals(db, record); err != nil {
		t.Fatalf("UpsertVitals() error = %v", err)
	}

	update := &PlayerVitalsRecord{
		Identity:   "rudo",
		Health:     5,
		MaxHealth:  20,
		Hunger:     0,
		MaxHunger:  20,
		DeathCount: 1,
	}
	if err := UpsertVitals(db, update); err != nil {
		t.Fatalf("UpsertVitals() on existing row error = %v", err)
	}

	var count int64
	if err := db.Model(&PlayerVitalsRecord{}).Where("identity = ?", "rudo").Count(&count).Error; err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row for identity, got %d", count)
	}

	got, err := FindVitals(db, "rudo")
	if err != nil {
		t.Fatalf("FindVitals() error = %v", err)
	}
	if got.Health != 5 || got.DeathCount != 1 {
		t.Errorf("expected updated row (health=5, deaths=1), got health=%d deaths=%d",
			got.Health, got.DeathCount)
	}
}
