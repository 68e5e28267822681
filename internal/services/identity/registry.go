package identity

import (
	"github.com/mcoot/wordduel/internal/model"
)

// Registry maps a durable player identity to its current live connection.
//
// Registry is not safe for concurrent use. It is owned by the session
// controller, which serialises every mutation.
type Registry struct {
	bindings map[model.PlayerID]model.ConnectionID
	byConn   map[model.ConnectionID]model.PlayerID
}

// New creates an empty Registry
func New() *Registry {
	return &Registry{
		bindings: make(map[model.PlayerID]model.ConnectionID),
		byConn:   make(map[model.ConnectionID]model.PlayerID),
	}
}

// Bind points id at conn, replacing any earlier binding for id. A connection
// holds at most one identity, so a different identity previously on conn is
// unbound and returned; the caller must treat it as having lost its
// connection.
func (r *Registry) Bind(id model.PlayerID, conn model.ConnectionID) (released model.PlayerID, err error) {
	if id == "" {
		return "", model.ErrInvalidIdentity
	}

	if old, ok := r.bindings[id]; ok && old != conn {
		delete(r.byConn, old)
	}
	if prev, ok := r.byConn[conn]; ok && prev != id {
		delete(r.bindings, prev)
		released = prev
	}

	r.bindings[id] = conn
	r.byConn[conn] = id
	return released, nil
}

// Resolve returns the connection currently bound to id
func (r *Registry) Resolve(id model.PlayerID) (model.ConnectionID, error) {
	conn, ok := r.bindings[id]
	if !ok {
		return "", model.ErrIdentityNotFound
	}
	return conn, nil
}

// IdentityOf returns the identity bound to conn, if any
func (r *Registry) IdentityOf(conn model.ConnectionID) (model.PlayerID, bool) {
	id, ok := r.byConn[conn]
	return id, ok
}

// UnbindIfMatches removes the binding for id only if it still points at
// conn. Returns true if a binding was removed.
func (r *Registry) UnbindIfMatches(id model.PlayerID, conn model.ConnectionID) bool {
	current, ok := r.bindings[id]
	if !ok || current != conn {
		return false
	}
	delete(r.bindings, id)
	delete(r.byConn, conn)
	return true
}

// Len returns the number of bound identities
func (r *Registry) Len() int {
	return len(r.bindings)
}
