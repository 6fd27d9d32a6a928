package server

import (
	"sync"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
)

// ConnectionDirectory maps a user identity to its single live connection
// handle. A new connection for the same user supersedes the old one.
type ConnectionDirectory struct {
	mu    sync.RWMutex
	conns map[string]*Conn // userID -> live connection
}

// NewConnectionDirectory creates an empty directory.
func NewConnectionDirectory() *ConnectionDirectory {
	return &ConnectionDirectory{
		conns: make(map[string]*Conn),
	}
}

// Register stores the connection for its user id and returns the superseded
// handle, if any. The caller is responsible for closing the old handle.
func (d *ConnectionDirectory) Register(c *Conn) (prev *Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev = d.conns[c.principal.UserID]
	if prev == c {
		prev = nil
	}
	d.conns[c.principal.UserID] = c
	return prev
}

// Unregister removes the connection only if it is still the registered handle
// for its user. A stale close from a superseded connection must not evict the
// live one.
func (d *ConnectionDirectory) Unregister(c *Conn) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conns[c.principal.UserID] != c {
		return false
	}
	delete(d.conns, c.principal.UserID)
	return true
}

// Get retrieves the live connection for a user id.
func (d *ConnectionDirectory) Get(userID string) (*Conn, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.conns[userID]
	return c, ok
}

// IsConnected reports whether a user id has a live connection.
func (d *ConnectionDirectory) IsConnected(userID string) bool {
	_, ok := d.Get(userID)
	return ok
}

// Count returns the number of live connections.
func (d *ConnectionDirectory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.conns)
}

// CountByRole returns the number of live connections holding a role.
func (d *ConnectionDirectory) CountByRole(role model.Role) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, c := range d.conns {
		if c.principal.Role == role {
			n++
		}
	}
	return n
}

// Each calls fn for every live connection (snapshot; fn runs without the
// directory lock held).
func (d *ConnectionDirectory) Each(fn func(*Conn)) {
	d.mu.RLock()
	conns := make([]*Conn, 0, len(d.conns))
	for _, c := range d.conns {
		conns = append(conns, c)
	}
	d.mu.RUnlock()
	for _, c := range conns {
		fn(c)
	}
}
