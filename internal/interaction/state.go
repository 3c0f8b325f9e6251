package interaction

import (
	"time"

	"mediahub/pkg/models"
)

// MutationKind is a user-toggleable dimension of a content item
type MutationKind string

const (
	KindLike MutationKind = "like"
	KindSave MutationKind = "save"
)

// Phase is where a (key, kind) pair is in its optimistic mutation lifecycle.
//
//	Idle -> Optimistic -> Reconciled | RolledBack -> Idle
//
// Terminal phases decay back to Idle once the guard window has passed.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOptimistic
	PhaseReconciled
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseOptimistic:
		return "optimistic"
	case PhaseReconciled:
		return "reconciled"
	case PhaseRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

type mutationKey struct {
	key  models.ContentKey
	kind MutationKind
}

type mutationState struct {
	phase         Phase
	inFlight      int
	lastMutatedAt time.Time
	seq           uint64
}

// beginMutationLocked stamps an optimistic mutation and returns its sequence number
func (s *Store) beginMutationLocked(key models.ContentKey, kind MutationKind, now time.Time) uint64 {
	mk := mutationKey{key: key, kind: kind}
	st, ok := s.mutations[mk]
	if !ok {
		st = &mutationState{}
		s.mutations[mk] = st
	}
	st.phase = PhaseOptimistic
	st.inFlight++
	st.lastMutatedAt = now
	st.seq++
	return st.seq
}

// endMutationLocked records the outcome. While other mutations on the same
// pair are still in flight the pair stays Optimistic.
func (s *Store) endMutationLocked(key models.ContentKey, kind MutationKind, outcome Phase) {
	st, ok := s.mutations[mutationKey{key: key, kind: kind}]
	if !ok {
		return
	}
	if st.inFlight > 0 {
		st.inFlight--
	}
	if st.inFlight == 0 {
		st.phase = outcome
	}
}

// mutationSeqLocked returns the current sequence number for (key, kind)
func (s *Store) mutationSeqLocked(key models.ContentKey, kind MutationKind) uint64 {
	if st, ok := s.mutations[mutationKey{key: key, kind: kind}]; ok {
		return st.seq
	}
	return 0
}

// guardedLocked reports whether server data for (key, kind) must not override
// local state: a mutation is in flight, one happened within the window, or one
// started after startSeq was read.
func (s *Store) guardedLocked(key models.ContentKey, kind MutationKind, startSeq uint64, now time.Time, window time.Duration) bool {
	st, ok := s.mutations[mutationKey{key: key, kind: kind}]
	if !ok {
		return false
	}
	if st.inFlight > 0 || st.seq != startSeq {
		return true
	}
	return !st.lastMutatedAt.IsZero() && now.Sub(st.lastMutatedAt) < window
}

func (s *Store) phaseLocked(key models.ContentKey, kind MutationKind, now time.Time, window time.Duration) Phase {
	st, ok := s.mutations[mutationKey{key: key, kind: kind}]
	if !ok {
		return PhaseIdle
	}
	if (st.phase == PhaseReconciled || st.phase == PhaseRolledBack) && now.Sub(st.lastMutatedAt) >= window {
		st.phase = PhaseIdle
	}
	return st.phase
}

// clearMutations forgets every busy flag and recency marker
func (s *Store) clearMutations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutations = make(map[mutationKey]*mutationState)
}
