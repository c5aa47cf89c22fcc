// Package world is the boundary to the terrain collaborator. The server
// never generates or holds chunk data; it only needs to know whether a
// world referenced by a room actually exists.
package world

// Registry answers worldId validity queries from a fixed set of worlds
// declared in the server config. A networked terrain service would replace
// this by satisfying room.WorldChecker.
type Registry struct {
	worlds map[string]struct{}
}

func NewRegistry(worldIDs []string) *Registry {
	r := &Registry{worlds: make(map[string]struct{}, len(worldIDs))}
	for _, id := range worldIDs {
		r.worlds[id] = struct{}{}
	}
	return r
}

func (r *Registry) WorldExists(worldID string) bool {
	_, ok := r.worlds[worldID]
	return ok
}
