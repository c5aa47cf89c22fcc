// Package room groups authenticated sessions into named broadcast scopes.
package room

import (
	"strings"
)

// LobbyID is the permanent default room every player lands in after login.
// It is created at startup and can never be removed.
const LobbyID = "lobby"

// Room is one logical broadcast scope. A room references identities only;
// a member with no live session is legal and simply unreachable. Rooms are
// only mutated through the Manager, which holds the lock.
type Room struct {
	ID          string
	DisplayName string
	// WorldID is a back-reference to the terrain collaborator's world; the
	// room does not own any world content.
	WorldID  string
	Capacity int // 0 = unbounded
	IsLobby  bool

	// members in join order, with a set alongside for O(1) membership checks.
	members   []string
	memberSet map[string]struct{}
}

func newRoom(id, worldID, displayName string, capacity int, isLobby bool) *Room {
	return &Room{
		ID:          id,
		DisplayName: displayName,
		WorldID:     worldID,
		Capacity:    capacity,
		IsLobby:     isLobby,
		memberSet:   make(map[string]struct{}),
	}
}

func (r *Room) add(identity string) {
	if _, ok := r.memberSet[identity]; ok {
		return
	}
	r.memberSet[identity] = struct{}{}
	r.members = append(r.members, identity)
}

func (r *Room) remove(identity string) {
	if _, ok := r.memberSet[identity]; !ok {
		return
	}
	delete(r.memberSet, identity)
	for i, member := range r.members {
		if member == identity {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
}

func (r *Room) full() bool {
	return r.Capacity > 0 && len(r.members) >= r.Capacity
}

// Summary is a read-only projection of a room used for listing queries. The
// PlayerCount reflects a single consistent snapshot taken at read time.
type Summary struct {
	RoomID      string
	DisplayName string
	WorldID     string
	PlayerCount int
	Capacity    int
	IsLobby     bool
}

func validRoomID(roomID string) bool {
	return strings.TrimSpace(roomID) != ""
}
