package vitals

import (
	"gorm.io/gorm"

	"voxeld/internal/core/data"
)

// Store is the persistence collaborator for vitals. Calls may fail
// transiently; the in-memory cache remains authoritative and failures are
// logged, never fatal to the live gameplay path.
type Store interface {
	Load(identity string) (*State, error)
	Save(state State) error
}

// gormStore persists vitals through the shared gorm database.
type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Load(identity string) (*State, error) {
	record, err := data.FindVitals(s.db, identity)
	if err != nil || record == nil {
		return nil, err
	}

	return &State{
		Identity:           record.Identity,
		Health:             record.Health,
		MaxHealth:          record.MaxHealth,
		Hunger:             record.Hunger,
		MaxHunger:          record.MaxHunger,
		Saturation:         record.Saturation,
		DeathCount:         record.DeathCount,
		LastDamageAt:       record.LastDamageAt,
		LastHungerUpdateAt: record.LastHungerUpdateAt,
		LastDeathAt:        record.LastDeathAt,
		LastDamageCause:    record.LastDamageCause,
		LastDeathCause:     record.LastDeathCause,
		RespawnPosition: Position{
			X: record.RespawnX,
			Y: record.RespawnY,
			Z: record.RespawnZ,
		},
	}, nil
}

func (s *gormStore) Save(state State) error {
	return data.UpsertVitals(s.db, &data.PlayerVitalsRecord{
		Identity:           state.Identity,
		Health:             state.Health,
		MaxHealth:          state.MaxHealth,
		Hunger:             state.Hunger,
		MaxHunger:          state.MaxHunger,
		Saturation:         state.Saturation,
		DeathCount:         state.DeathCount,
		LastDamageAt:       state.LastDamageAt,
		LastHungerUpdateAt: state.LastHungerUpdateAt,
		LastDeathAt:        state.LastDeathAt,
		LastDamageCause:    state.LastDamageCause,
		LastDeathCause:     state.LastDeathCause,
		RespawnX:           state.RespawnPosition.X,
		RespawnY:           state.RespawnPosition.Y,
		RespawnZ:           state.RespawnPosition.Z,
	})
}
