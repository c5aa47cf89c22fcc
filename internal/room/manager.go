package room

import (
	"sync"

	"github.com/sirupsen/logrus"

	"voxeld/internal/core/bytes"
	"voxeld/internal/session"
)

// WorldChecker is the boundary to the terrain collaborator, consulted only
// for worldId validity when creating a room.
type WorldChecker interface {
	WorldExists(worldID string) bool
}

// Manager owns every room's lifetime and the identity -> room association.
// One lock serializes all membership mutation, which is what guarantees that
// an identity is a member of at most one room at any instant and that a
// capacity check and the corresponding insertion are a single step. The lock
// is never held across I/O; broadcasts operate on a snapshot.
type Manager struct {
	Logger *logrus.Logger

	sessions *session.Registry
	worlds   WorldChecker

	mu         sync.RWMutex
	rooms      map[string]*Room
	playerRoom map[string]string
}

// NewManager creates a Manager with the permanent lobby already present.
func NewManager(logger *logrus.Logger, sessions *session.Registry, worlds WorldChecker) *Manager {
	m := &Manager{
		Logger:     logger,
		sessions:   sessions,
		worlds:     worlds,
		rooms:      make(map[string]*Room),
		playerRoom: make(map[string]string),
	}
	m.rooms[LobbyID] = newRoom(LobbyID, "", "Lobby", 0, true)
	return m
}

// CreateRoom adds a new room. It returns false, mutating nothing, if the
// roomId is empty/whitespace, already taken, or references an unknown world.
func (m *Manager) CreateRoom(roomID, worldID, displayName string, capacity int, isLobby bool) bool {
	if !validRoomID(roomID) {
		return false
	}
	if m.worlds != nil && worldID != "" && !m.worlds.WorldExists(worldID) {
		m.Logger.Warnf("rejecting room %q referencing unknown world %q", roomID, worldID)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[roomID]; exists {
		return false
	}

	m.rooms[roomID] = newRoom(roomID, worldID, displayName, capacity, isLobby)
	m.Logger.Infof("created room %q (world=%q capacity=%d)", roomID, worldID, capacity)
	return true
}

// RemoveRoom evicts all members of the room and deletes it. Evicted members
// become room-less rather than being reassigned. Removing an unknown room or
// the permanent lobby fails.
func (m *Manager) RemoveRoom(roomID string) bool {
	if roomID == LobbyID {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, exists := m.rooms[roomID]
	if !exists {
		return false
	}

	for _, member := range r.members {
		delete(m.playerRoom, member)
	}
	delete(m.rooms, roomID)
	m.Logger.Infof("removed room %q (%d members evicted)", roomID, len(r.members))
	return true
}

// AssignPlayerToRoom moves the identity from its current room (if any) into
// the target room. The move is atomic with respect to other membership
// operations: at no observation point is the identity in two rooms, and a
// full target room fails the whole operation with no partial mutation.
// Re-assigning an identity to the room it already occupies succeeds as a
// no-op; the capacity check only applies to identities actually entering.
func (m *Manager) AssignPlayerToRoom(identity, roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, exists := m.rooms[roomID]
	if !exists {
		return false
	}

	currentID, inRoom := m.playerRoom[identity]
	if inRoom && currentID == roomID {
		return true
	}
	if target.full() {
		return false
	}

	if inRoom {
		if current, ok := m.rooms[currentID]; ok {
			current.remove(identity)
		}
	}

	target.add(identity)
	m.playerRoom[identity] = roomID
	return true
}

// RemovePlayer clears the identity's room association, wherever it is. It is
// a no-op for identities in no room and is called on every disconnect.
func (m *Manager) RemovePlayer(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.playerRoom[identity]
	if !ok {
		return
	}
	if r, ok := m.rooms[roomID]; ok {
		r.remove(identity)
	}
	delete(m.playerRoom, identity)
}

// GetPlayerRoomID returns the room the identity currently occupies.
func (m *Manager) GetPlayerRoomID(identity string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roomID, ok := m.playerRoom[identity]
	return roomID, ok
}

// GetRoom returns the room with the given id, or nil.
func (m *Manager) GetRoom(roomID string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID]
}

// GetRooms returns all rooms' summaries, lobby first.
func (m *Manager) GetRooms() []Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]Summary, 0, len(m.rooms))
	if lobby, ok := m.rooms[LobbyID]; ok {
		summaries = append(summaries, summarize(lobby))
	}
	for id, r := range m.rooms {
		if id == LobbyID {
			continue
		}
		summaries = append(summaries, summarize(r))
	}
	return summaries
}

// Summary returns the read-only projection for one room, or false if the
// room does not exist. PlayerCount is taken under the lock, never from a
// cached count.
func (m *Manager) Summary(roomID string) (Summary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return Summary{}, false
	}
	return summarize(r), true
}

func summarize(r *Room) Summary {
	return Summary{
		RoomID:      r.ID,
		DisplayName: r.DisplayName,
		WorldID:     r.WorldID,
		PlayerCount: len(r.members),
		Capacity:    r.Capacity,
		IsLobby:     r.IsLobby,
	}
}

// GetMembers returns the room's member identities in join order. Unknown
// rooms yield an empty set, never an error.
func (m *Manager) GetMembers(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return []string{}
	}
	members := make([]string, len(r.members))
	copy(members, r.members)
	return members
}

// BroadcastToRoom sends one message to every member's live session
// concurrently and waits for all sends to finish. The message is serialized
// once and the same payload is framed to every member. Members with no live
// session are silently skipped. Individual send failures are collected and
// returned keyed by identity; they never abort delivery to the rest and
// nothing is rolled back.
func (m *Manager) BroadcastToRoom(roomID string, tag int32, message interface{}) map[string]error {
	members := m.GetMembers(roomID)
	payload, _ := bytes.BytesFromStruct(message)

	type result struct {
		identity string
		err      error
	}

	var wg sync.WaitGroup
	results := make(chan result, len(members))

	for _, identity := range members {
		s := m.sessions.Get(identity)
		if s == nil {
			// Stale membership: the identity has no live session right now.
			continue
		}

		wg.Add(1)
		go func(identity string, s *session.Session) {
			defer wg.Done()
			if err := s.SendRaw(tag, payload); err != nil {
				results <- result{identity: identity, err: err}
			}
		}(identity, s)
	}

	wg.Wait()
	close(results)

	var failures map[string]error
	for r := range results {
		if failures == nil {
			failures = make(map[string]error)
		}
		failures[r.identity] = r.err
		m.Logger.Warnf("broadcast to room %q failed for %s: %v", roomID, r.identity, r.err)
	}
	return failures
}
