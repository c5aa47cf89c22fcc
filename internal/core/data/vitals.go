package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlayerVitalsRecord is the durable copy of a player's vitals state. The
// in-memory cache is authoritative while the server is running; these rows
// exist so that historical counters and the last known state survive
// disconnects and restarts. Rows are never deleted once an identity has
// existed.
type PlayerVitalsRecord struct {
	ID uint64 `gorm:"primaryKey"`

	Identity string `gorm:"unique; not null"`

	Health     int
	MaxHealth  int
	Hunger     int
	MaxHunger  int
	Saturation int

	DeathCount int

	LastDamageAt       time.Time
	LastHungerUpdateAt time.Time
	LastDeathAt        time.Time
	LastDamageCause    string
	LastDeathCause     string

	RespawnX int
	RespawnY int
	RespawnZ int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FindVitals returns the vitals record for identity or nil if none exists.
func FindVitals(db *gorm.DB, identity string) (*PlayerVitalsRecord, error) {
	var record PlayerVitalsRecord
	err := db.Where("identity = ?", identity).First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}

// UpsertVitals updates the vitals row for the record's identity, creating it
// if it does not exist.
func UpsertVitals(db *gorm.DB, record *PlayerVitalsRecord) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		UpdateAll: true,
	}).Create(record).Error
}
