package server

import (
	"sort"
	"sync"
	"time"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/protocol"
)

// activeSession holds the live membership of one interview session. Each
// session carries its own lock so one session's churn never serializes
// another's. Lock order is always registry.mu before activeSession.mu.
type activeSession struct {
	id string

	mu           sync.Mutex
	candidates   map[string]model.Participant // userID -> membership
	interviewers map[string]model.Participant
	createdAt    time.Time
	lastActivity time.Time
	evicted      bool // set under mu once removed from the registry
}

// SessionRegistry is the in-memory table of active sessions. A session exists
// here iff it currently has at least one connected member; it is created
// lazily on first join and evicted once both role-sets drain.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*activeSession
	now      func() time.Time
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*activeSession),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *SessionRegistry) getOrCreate(sessionID string) *activeSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[sessionID]; ok {
		return sess
	}
	now := r.now()
	sess := &activeSession{
		id:           sessionID,
		candidates:   make(map[string]model.Participant),
		interviewers: make(map[string]model.Participant),
		createdAt:    now,
		lastActivity: now,
	}
	r.sessions[sessionID] = sess
	return sess
}

func (r *SessionRegistry) get(sessionID string) (*activeSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[sessionID]
	return sess, ok
}

// Join inserts or replaces the membership entry for the participant's user id
// in the role-set named by p.Role. Re-joining updates in place; a user id
// occupies at most one role-slot per session, so the opposite slot is cleared
// first. Returns the post-join snapshot.
func (r *SessionRegistry) Join(sessionID string, p model.Participant) protocol.ConnectedUsers {
	for {
		sess := r.getOrCreate(sessionID)
		sess.mu.Lock()
		if sess.evicted {
			// Lost a race with eviction; the registry entry is gone.
			sess.mu.Unlock()
			continue
		}
		delete(sess.candidates, p.UserID)
		delete(sess.interviewers, p.UserID)
		if p.Role == model.RoleCandidate.String() {
			sess.candidates[p.UserID] = p
		} else {
			sess.interviewers[p.UserID] = p
		}
		sess.lastActivity = r.now()
		snap := sess.snapshotLocked()
		sess.mu.Unlock()
		return snap
	}
}

// Leave removes the user id from whichever role-set it occupies. When the
// session drains it is evicted from the registry. The returned snapshot
// reflects the post-leave membership.
func (r *SessionRegistry) Leave(sessionID, userID string) (removed bool, snap protocol.ConnectedUsers) {
	sess, ok := r.get(sessionID)
	if !ok {
		return false, protocol.ConnectedUsers{}
	}
	return r.leaveSession(sess, userID)
}

func (r *SessionRegistry) leaveSession(sess *activeSession, userID string) (bool, protocol.ConnectedUsers) {
	sess.mu.Lock()
	if sess.evicted {
		sess.mu.Unlock()
		return false, protocol.ConnectedUsers{}
	}
	_, inCand := sess.candidates[userID]
	_, inInt := sess.interviewers[userID]
	if !inCand && !inInt {
		snap := sess.snapshotLocked()
		sess.mu.Unlock()
		return false, snap
	}
	delete(sess.candidates, userID)
	delete(sess.interviewers, userID)
	sess.lastActivity = r.now()
	empty := len(sess.candidates) == 0 && len(sess.interviewers) == 0
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	if empty {
		r.evict(sess)
	}
	return true, snap
}

// evict removes a drained session from the registry. Membership is rechecked
// under both locks: a join racing the eviction wins and the entry stays.
func (r *SessionRegistry) evict(sess *activeSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[sess.id] != sess {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if len(sess.candidates) != 0 || len(sess.interviewers) != 0 {
		return
	}
	sess.evicted = true
	delete(r.sessions, sess.id)
}

// LeaveResult reports one session a user was removed from.
type LeaveResult struct {
	SessionID string
	Snapshot  protocol.ConnectedUsers
}

// LeaveAll removes the user id from every active session. Disconnects carry
// no back-reference to joined sessions, so all of them are checked; each
// session's mutation is independent.
func (r *SessionRegistry) LeaveAll(userID string) []LeaveResult {
	r.mu.RLock()
	sessions := make([]*activeSession, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.RUnlock()

	var results []LeaveResult
	for _, sess := range sessions {
		if removed, snap := r.leaveSession(sess, userID); removed {
			results = append(results, LeaveResult{SessionID: sess.id, Snapshot: snap})
		}
	}
	return results
}

// Snapshot returns the canonical membership snapshot for a session, or
// ok=false when the session is not active.
func (r *SessionRegistry) Snapshot(sessionID string) (protocol.ConnectedUsers, bool) {
	sess, ok := r.get(sessionID)
	if !ok {
		return protocol.ConnectedUsers{}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.evicted {
		return protocol.ConnectedUsers{}, false
	}
	return sess.snapshotLocked(), true
}

// Has reports whether a session is active in the registry.
func (r *SessionRegistry) Has(sessionID string) bool {
	_, ok := r.get(sessionID)
	return ok
}

// Count returns the number of active sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SessionIDs returns the ids of all active sessions.
func (r *SessionRegistry) SessionIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MemberIDs returns every member user id of a session, both roles.
func (r *SessionRegistry) MemberIDs(sessionID string) []string {
	sess, ok := r.get(sessionID)
	if !ok {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	ids := make([]string, 0, len(sess.candidates)+len(sess.interviewers))
	for id := range sess.candidates {
		ids = append(ids, id)
	}
	for id := range sess.interviewers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// InterviewerIDs returns the interviewer member user ids of a session.
func (r *SessionRegistry) InterviewerIDs(sessionID string) []string {
	sess, ok := r.get(sessionID)
	if !ok {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	ids := make([]string, 0, len(sess.interviewers))
	for id := range sess.interviewers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsInterviewer reports whether the user id currently occupies the
// interviewer slot of the session.
func (r *SessionRegistry) IsInterviewer(sessionID, userID string) bool {
	sess, ok := r.get(sessionID)
	if !ok {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	_, ok = sess.interviewers[userID]
	return ok
}

// RoleCounts returns the total connected candidate and interviewer membership
// counts across all active sessions.
func (r *SessionRegistry) RoleCounts() (candidates, interviewers int) {
	r.mu.RLock()
	sessions := make([]*activeSession, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.RUnlock()
	for _, sess := range sessions {
		sess.mu.Lock()
		candidates += len(sess.candidates)
		interviewers += len(sess.interviewers)
		sess.mu.Unlock()
	}
	return candidates, interviewers
}

// snapshotLocked builds the membership snapshot. Caller holds sess.mu. Both
// lists are sorted by user id so identical payloads reach every recipient.
func (sess *activeSession) snapshotLocked() protocol.ConnectedUsers {
	return protocol.ConnectedUsers{
		Candidates:   sortedParticipants(sess.candidates),
		Interviewers: sortedParticipants(sess.interviewers),
	}
}

func sortedParticipants(set map[string]model.Participant) []model.Participant {
	out := make([]model.Participant, 0, len(set))
	for _, p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
