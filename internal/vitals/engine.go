package vitals

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"voxeld/internal/packets"
	"voxeld/internal/room"
	"voxeld/internal/session"
)

// player is one cached identity's vitals plus the mutex that serializes
// every read-modify-write on it, whether it comes from an inbound handler
// or from a background tick.
type player struct {
	mu    sync.Mutex
	state State
}

// Engine owns the vitals cache and the two periodic background processes
// (regeneration and hunger decay). All mutation paths funnel through the
// same persist-then-broadcast sequence: the state copy is handed to the
// save queue before the update frame goes out, so a client never observes
// vitals staler than storage for more than one tick. The commit happens
// while the per-identity lock is still held, so two racing mutators (say
// a regen tick and a damage handler) can never deliver their snapshots to
// the session or the save queue out of mutation order.
type Engine struct {
	Logger *logrus.Logger

	// Tick cadence; zero values fall back to the defaults.
	RegenInterval       time.Duration
	HungerDecayInterval time.Duration

	store    Store
	sessions *session.Registry
	rooms    *room.Manager

	cache    *gocache.Cache
	createMu sync.Mutex

	saves  chan State
	tickWg sync.WaitGroup
	wg     sync.WaitGroup

	// now is a seam for tick tests.
	now func() time.Time
}

func NewEngine(logger *logrus.Logger, store Store, sessions *session.Registry, rooms *room.Manager) *Engine {
	return &Engine{
		Logger:   logger,
		store:    store,
		sessions: sessions,
		rooms:    rooms,
		cache:    gocache.New(gocache.NoExpiration, 10*time.Minute),
		saves:    make(chan State, 256),
		now:      time.Now,
	}
}

// Run starts the save writer and the two tick processes. Cancelling ctx
// stops them cooperatively: no new ticks begin, an in-flight tick finishes,
// and queued saves are drained before Shutdown returns.
func (e *Engine) Run(ctx context.Context) {
	regen := e.RegenInterval
	if regen <= 0 {
		regen = DefaultRegenInterval
	}
	decay := e.HungerDecayInterval
	if decay <= 0 {
		decay = DefaultHungerDecayInterval
	}

	e.tickWg.Add(2)
	go e.tickLoop(ctx, regen, e.tickRegen)
	go e.tickLoop(ctx, decay, e.tickHungerDecay)

	e.wg.Add(1)
	go e.saveLoop(ctx)
}

// Shutdown blocks until the background goroutines started by Run have
// exited. Call after cancelling the Run context.
func (e *Engine) Shutdown() {
	e.wg.Wait()
}

func (e *Engine) tickLoop(ctx context.Context, interval time.Duration, tick func(now time.Time)) {
	defer e.tickWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(e.now())
		}
	}
}

func (e *Engine) saveLoop(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			// Wait for the tick loops to stop producing, then drain
			// whatever they queued before shutdown.
			e.tickWg.Wait()
			for {
				select {
				case state := <-e.saves:
					e.persist(state)
				default:
					return
				}
			}
		case state := <-e.saves:
			e.persist(state)
		}
	}
}

func (e *Engine) persist(state State) {
	if err := e.store.Save(state); err != nil {
		// The cache remains authoritative; the next mutation retries.
		e.Logger.Warnf("failed to persist vitals for %s: %v", state.Identity, err)
	}
}

// get returns the cached vitals for identity, creating them lazily on first
// reference. Creation consults the persistence collaborator; a miss or a
// transient failure yields default full vitals.
func (e *Engine) get(identity string) *player {
	if cached, ok := e.cache.Get(identity); ok {
		return cached.(*player)
	}

	e.createMu.Lock()
	defer e.createMu.Unlock()

	if cached, ok := e.cache.Get(identity); ok {
		return cached.(*player)
	}

	p := &player{state: defaultState(identity, e.now())}
	if e.store != nil {
		stored, err := e.store.Load(identity)
		if err != nil {
			e.Logger.Warnf("failed to load vitals for %s, using defaults: %v", identity, err)
		} else if stored != nil {
			p.state = *stored
		}
	}

	e.cache.Set(identity, p, gocache.NoExpiration)
	return p
}

// Snapshot returns a copy of the identity's current vitals, loading or
// creating them if needed.
func (e *Engine) Snapshot(identity string) State {
	p := e.get(identity)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Damage applies amount to the identity's health, clamped at zero. It fails
// with ErrDead if the player is already dead. Driving health to zero
// triggers the death transition exactly once.
func (e *Engine) Damage(identity string, amount int, cause string) error {
	p := e.get(identity)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Dead() {
		return ErrDead
	}

	died := e.damageLocked(p, amount, cause)
	e.commit(p.state)
	if died {
		e.announceDeath(p.state)
	}
	return nil
}

// damageLocked applies damage to a living player. Caller holds p.mu.
// Returns whether this damage crossed the zero threshold.
func (e *Engine) damageLocked(p *player, amount int, cause string) bool {
	now := e.now()

	p.state.Health -= amount
	if p.state.Health < 0 {
		p.state.Health = 0
	}
	p.state.LastDamageAt = now
	p.state.LastDamageCause = cause

	if !p.state.Dead() {
		return false
	}

	p.state.DeathCount++
	p.state.LastDeathAt = now
	p.state.LastDeathCause = cause
	p.state.RespawnPosition = worldSpawn
	return true
}

// Heal raises health by amount, clamped at MaxHealth. It fails with ErrDead
// for a dead player and ErrFullHealth when there is nothing to heal.
func (e *Engine) Heal(identity string, amount int, cause string) error {
	p := e.get(identity)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Dead() {
		return ErrDead
	}
	if p.state.Health >= p.state.MaxHealth {
		return ErrFullHealth
	}

	p.state.Health += amount
	if p.state.Health > p.state.MaxHealth {
		p.state.Health = p.state.MaxHealth
	}
	e.commit(p.state)
	return nil
}

// ConsumeHunger removes points of hunger, clamped at zero. Saturation is
// clamped down with it so it never exceeds hunger.
func (e *Engine) ConsumeHunger(identity string, points int) error {
	p := e.get(identity)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Dead() {
		return ErrDead
	}

	p.state.Hunger -= points
	if p.state.Hunger < 0 {
		p.state.Hunger = 0
	}
	if p.state.Saturation > p.state.Hunger {
		p.state.Saturation = p.state.Hunger
	}
	e.commit(p.state)
	return nil
}

// Feed adds food points to hunger (clamped at MaxHunger) and saturation
// points to saturation, clamped so saturation never exceeds the new hunger
// value.
func (e *Engine) Feed(identity string, foodPoints, saturationPoints int) error {
	p := e.get(identity)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Dead() {
		return ErrDead
	}

	p.state.Hunger += foodPoints
	if p.state.Hunger > p.state.MaxHunger {
		p.state.Hunger = p.state.MaxHunger
	}
	p.state.Saturation += saturationPoints
	if p.state.Saturation > p.state.Hunger {
		p.state.Saturation = p.state.Hunger
	}
	e.commit(p.state)
	return nil
}

// Respawn resets a dead player to full vitals at the anchor stamped when
// they died and clears the damage stamp. It is only legal while dead.
func (e *Engine) Respawn(identity string) error {
	p := e.get(identity)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.Dead() {
		return ErrNotDead
	}

	p.state.Health = p.state.MaxHealth
	p.state.Hunger = p.state.MaxHunger
	p.state.Saturation = StartingSaturation
	p.state.LastDamageAt = time.Time{}
	p.state.LastHungerUpdateAt = e.now()
	anchor := p.state.RespawnPosition
	e.commit(p.state)

	e.Logger.Debugf("%s respawned at (%d, %d, %d)", identity, anchor.X, anchor.Y, anchor.Z)
	return nil
}

// tickRegen runs one regeneration pass over every cached identity. A living
// player below max health regenerates one health at the cost of one hunger,
// provided they are well fed and out of the post-damage cooldown.
func (e *Engine) tickRegen(now time.Time) {
	for identity, item := range e.cache.Items() {
		p, ok := item.Object.(*player)
		if !ok {
			continue
		}

		p.mu.Lock()
		st := &p.state
		if st.Dead() ||
			st.Health >= st.MaxHealth ||
			st.Hunger < regenHungerThreshold ||
			now.Sub(st.LastDamageAt) < regenCooldown {
			p.mu.Unlock()
			continue
		}

		st.Health += regenHealthStep
		if st.Health > st.MaxHealth {
			st.Health = st.MaxHealth
		}
		st.Hunger -= regenHungerCost
		if st.Hunger < 0 {
			st.Hunger = 0
		}
		if st.Saturation > st.Hunger {
			st.Saturation = st.Hunger
		}
		e.commit(p.state)
		state := p.state
		p.mu.Unlock()

		e.Logger.Debugf("regen tick healed %s to %d", identity, state.Health)
	}
}

// tickHungerDecay runs one decay pass over every cached identity. Saturation
// burns before hunger; an exhausted player takes starvation damage down to
// the floor.
func (e *Engine) tickHungerDecay(now time.Time) {
	interval := e.HungerDecayInterval
	if interval <= 0 {
		interval = DefaultHungerDecayInterval
	}

	for identity, item := range e.cache.Items() {
		p, ok := item.Object.(*player)
		if !ok {
			continue
		}

		p.mu.Lock()
		st := &p.state
		if st.Dead() || now.Sub(st.LastHungerUpdateAt) < interval {
			p.mu.Unlock()
			continue
		}

		st.LastHungerUpdateAt = now
		died := false

		switch {
		case st.Saturation > 0:
			st.Saturation--
		case st.Hunger > 0:
			st.Hunger--
		case st.Health > starvationFloor:
			died = e.damageLocked(p, starvationDamage, "starvation")
		default:
			// Starved to the floor already; nothing left to decay.
			p.mu.Unlock()
			continue
		}
		e.commit(p.state)
		if died {
			e.announceDeath(p.state)
		}
		state := p.state
		p.mu.Unlock()

		e.Logger.Debugf("hunger decay tick for %s: hunger=%d saturation=%d health=%d",
			identity, state.Hunger, state.Saturation, state.Health)
	}
}

// commit funnels every mutation through the persist-then-broadcast sequence.
// Callers invoke it before releasing the player's lock so that updates for
// one identity reach the save queue and the session in mutation order; the
// queue send is non-blocking, so holding the lock here is cheap.
func (e *Engine) commit(state State) {
	select {
	case e.saves <- state:
	default:
		// The queue is saturated; the cache stays authoritative and a later
		// mutation will carry the newer state.
		e.Logger.Warnf("vitals save queue full, dropping save for %s", state.Identity)
	}

	e.pushVitals(state)
}

// pushVitals sends the updated vitals to the player's own session, if one
// is live.
func (e *Engine) pushVitals(state State) {
	s := e.sessions.Get(state.Identity)
	if s == nil {
		return
	}

	if err := s.Send(packets.VitalsUpdateType, VitalsUpdatePacket(state)); err != nil {
		e.Logger.Warnf("failed to push vitals to %s: %v", state.Identity, err)
	}
}

// announceDeath notifies the dying player's current room, which includes
// their own session. A player in no room still gets a direct notice.
func (e *Engine) announceDeath(state State) {
	notice := &packets.DeathNotice{
		DeathCount: uint32(state.DeathCount),
	}
	copy(notice.Username[:], state.Identity)
	copy(notice.Cause[:], state.LastDeathCause)

	if roomID, ok := e.rooms.GetPlayerRoomID(state.Identity); ok {
		e.rooms.BroadcastToRoom(roomID, packets.DeathNoticeType, notice)
		return
	}

	if s := e.sessions.Get(state.Identity); s != nil {
		if err := s.Send(packets.DeathNoticeType, notice); err != nil {
			e.Logger.Warnf("failed to send death notice to %s: %v", state.Identity, err)
		}
	}
}

// VitalsUpdatePacket projects a vitals state into its wire message.
func VitalsUpdatePacket(state State) *packets.VitalsUpdate {
	return &packets.VitalsUpdate{
		Health:     uint32(state.Health),
		MaxHealth:  uint32(state.MaxHealth),
		Hunger:     uint32(state.Hunger),
		MaxHunger:  uint32(state.MaxHunger),
		Saturation: uint32(state.Saturation),
		DeathCount: uint32(state.DeathCount),
	}
}
