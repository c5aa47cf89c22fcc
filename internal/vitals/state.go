// Package vitals tracks the health/hunger/saturation state machine for every
// player identity and runs the background tick processes that mutate it.
package vitals

import (
	"errors"
	"time"
)

// Tuning constants for the vitals state machine.
const (
	DefaultMaxHealth   = 20
	DefaultMaxHunger   = 20
	StartingSaturation = 5

	// Regeneration requires this much hunger and this long since last damage.
	regenHungerThreshold = 18
	regenCooldown        = 5 * time.Second
	regenHealthStep      = 1
	regenHungerCost      = 1

	// Starvation chips one health per decay interval but never below the floor.
	starvationDamage = 1
	starvationFloor  = 1

	DefaultRegenInterval       = 3 * time.Second
	DefaultHungerDecayInterval = 18 * time.Second
)

var (
	// ErrDead is returned by mutations that are illegal on a dead player.
	ErrDead = errors.New("player is dead")
	// ErrFullHealth is returned by Heal when there is nothing to heal.
	ErrFullHealth = errors.New("player is already at full health")
	// ErrNotDead is returned by Respawn for a living player.
	ErrNotDead = errors.New("player is not dead")
)

// Position is a respawn anchor in world coordinates.
type Position struct {
	X, Y, Z int
}

// worldSpawn is the anchor stamped on death. Per-player anchors (beds,
// waypoints) would replace this once the server tracks placement.
var worldSpawn = Position{X: 0, Y: 64, Z: 0}

// State is one identity's full vitals. Invariants, maintained by the engine:
// 0 <= Health <= MaxHealth, 0 <= Hunger <= MaxHunger,
// 0 <= Saturation <= Hunger. Health == 0 is the terminal dead sub-state;
// nothing mutates a dead player until Respawn.
type State struct {
	Identity string

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

	RespawnPosition Position
}

// Dead reports whether the state is in the terminal dead sub-state.
func (s *State) Dead() bool {
	return s.Health <= 0
}

func defaultState(identity string, now time.Time) State {
	return State{
		Identity:           identity,
		Health:             DefaultMaxHealth,
		MaxHealth:          DefaultMaxHealth,
		Hunger:             DefaultMaxHunger,
		MaxHunger:          DefaultMaxHunger,
		Saturation:         StartingSaturation,
		LastHungerUpdateAt: now,
	}
}
