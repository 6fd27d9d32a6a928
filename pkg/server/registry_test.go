package server

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
)

func participant(userID string, role model.Role) model.Participant {
	return model.Participant{
		UserID: userID,
		Email:  userID + "@example.com",
		Name:   userID,
		Role:   role.String(),
	}
}

func TestRegistryJoinIdempotent(t *testing.T) {
	r := NewSessionRegistry()

	snap := r.Join("s1", participant("u1", model.RoleCandidate))
	require.Len(t, snap.Candidates, 1)

	// Re-joining updates, not duplicates.
	snap = r.Join("s1", participant("u1", model.RoleCandidate))
	require.Len(t, snap.Candidates, 1)
	require.Empty(t, snap.Interviewers)
}

func TestRegistryRoleSlotExclusive(t *testing.T) {
	r := NewSessionRegistry()

	r.Join("s1", participant("u1", model.RoleCandidate))
	snap := r.Join("s1", participant("u1", model.RoleInterviewer))

	// A user id occupies at most one role-slot per session.
	require.Empty(t, snap.Candidates)
	require.Len(t, snap.Interviewers, 1)
}

func TestRegistryLeaveAndEviction(t *testing.T) {
	r := NewSessionRegistry()

	r.Join("s1", participant("u1", model.RoleCandidate))
	r.Join("s1", participant("u2", model.RoleInterviewer))
	require.Equal(t, 1, r.Count())

	removed, snap := r.Leave("s1", "u1")
	require.True(t, removed)
	require.Empty(t, snap.Candidates)
	require.Len(t, snap.Interviewers, 1)
	require.True(t, r.Has("s1"))

	removed, snap = r.Leave("s1", "u2")
	require.True(t, removed)
	require.Empty(t, snap.Interviewers)

	// Both sets empty: session evicted.
	require.False(t, r.Has("s1"))
	require.Equal(t, 0, r.Count())
	_, ok := r.Snapshot("s1")
	require.False(t, ok)
}

func TestRegistryLeaveUnknown(t *testing.T) {
	r := NewSessionRegistry()
	removed, _ := r.Leave("missing", "u1")
	require.False(t, removed)

	r.Join("s1", participant("u1", model.RoleCandidate))
	removed, _ = r.Leave("s1", "stranger")
	require.False(t, removed)
	require.True(t, r.Has("s1"))
}

func TestRegistryLeaveAll(t *testing.T) {
	r := NewSessionRegistry()
	r.Join("s1", participant("u1", model.RoleCandidate))
	r.Join("s2", participant("u1", model.RoleCandidate))
	r.Join("s2", participant("u2", model.RoleInterviewer))

	results := r.LeaveAll("u1")
	require.Len(t, results, 2)

	// u1 absent from every remaining snapshot; drained session evicted.
	require.False(t, r.Has("s1"))
	snap, ok := r.Snapshot("s2")
	require.True(t, ok)
	require.Empty(t, snap.Candidates)
	require.Len(t, snap.Interviewers, 1)
	require.Equal(t, "u2", snap.Interviewers[0].UserID)
}

func TestRegistrySnapshotSorted(t *testing.T) {
	r := NewSessionRegistry()
	for _, id := range []string{"u3", "u1", "u2"} {
		r.Join("s1", participant(id, model.RoleCandidate))
	}
	snap, ok := r.Snapshot("s1")
	require.True(t, ok)
	require.Equal(t, "u1", snap.Candidates[0].UserID)
	require.Equal(t, "u2", snap.Candidates[1].UserID)
	require.Equal(t, "u3", snap.Candidates[2].UserID)
}

func TestRegistryRoleCounts(t *testing.T) {
	r := NewSessionRegistry()
	r.Join("s1", participant("c1", model.RoleCandidate))
	r.Join("s1", participant("i1", model.RoleInterviewer))
	r.Join("s2", participant("c2", model.RoleCandidate))

	candidates, interviewers := r.RoleCounts()
	require.Equal(t, 2, candidates)
	require.Equal(t, 1, interviewers)
}

func TestRegistryMemberAndInterviewerIDs(t *testing.T) {
	r := NewSessionRegistry()
	r.Join("s1", participant("c1", model.RoleCandidate))
	r.Join("s1", participant("i2", model.RoleInterviewer))
	r.Join("s1", participant("i1", model.RoleInterviewer))

	require.Equal(t, []string{"c1", "i1", "i2"}, r.MemberIDs("s1"))
	require.Equal(t, []string{"i1", "i2"}, r.InterviewerIDs("s1"))
	require.True(t, r.IsInterviewer("s1", "i1"))
	require.False(t, r.IsInterviewer("s1", "c1"))
	require.False(t, r.IsInterviewer("missing", "i1"))
}

// Concurrent join/leave churn across sessions must keep snapshots exact: the
// final membership equals exactly the set of users that stayed.
func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewSessionRegistry()
	const workers = 16
	const rounds = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", w)
			session := fmt.Sprintf("s%d", w%4)
			for i := 0; i < rounds; i++ {
				r.Join(session, participant(user, model.RoleCandidate))
				if i%2 == 0 {
					r.Leave(session, user)
				}
			}
		}(w)
	}
	wg.Wait()

	// Every worker ended on a join (last iteration index is odd), so all
	// 16 users must be present across the 4 sessions, 4 apiece.
	total := 0
	for _, id := range r.SessionIDs() {
		snap, ok := r.Snapshot(id)
		require.True(t, ok)
		total += len(snap.Candidates)
	}
	require.Equal(t, workers, total)
}
