package engine

import (
	"github.com/google/uuid"

	"github.com/jiazengp/peekd/internal/domain/peek"
)

// requestState pairs an in-flight request with its armed timers. Timers are
// owned here so resolution can cancel them without a separate lookup.
type requestState struct {
	req     *peek.Request
	timeout Timer
	auto    Timer
}

func (rs *requestState) cancelTimers() {
	if rs.timeout != nil {
		rs.timeout.Cancel()
	}
	if rs.auto != nil {
		rs.auto.Cancel()
	}
}

type pairKey struct {
	requester uuid.UUID
	target    uuid.UUID
}

// requestStore holds all pending requests. It is not safe for concurrent use
// on its own: every access happens under the engine lock.
type requestStore struct {
	byID   map[uuid.UUID]*requestState
	byPair map[pairKey]uuid.UUID
}

func newRequestStore() *requestStore {
	return &requestStore{
		byID:   make(map[uuid.UUID]*requestState),
		byPair: make(map[pairKey]uuid.UUID),
	}
}

// add indexes a freshly created pending request. At most one pending
// request may exist per ordered (requester, target) pair.
func (s *requestStore) add(rs *requestState) error {
	key := pairKey{rs.req.Requester, rs.req.Target}
	if _, exists := s.byPair[key]; exists {
		return peek.ErrDuplicatePending
	}
	s.byID[rs.req.RequestID] = rs
	s.byPair[key] = rs.req.RequestID
	return nil
}

func (s *requestStore) get(id uuid.UUID) *requestState {
	return s.byID[id]
}

func (s *requestStore) hasPending(requester, target uuid.UUID) bool {
	_, ok := s.byPair[pairKey{requester, target}]
	return ok
}

// remove drops a resolved request from both indexes. Idempotent.
func (s *requestStore) remove(id uuid.UUID) {
	rs, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	delete(s.byPair, pairKey{rs.req.Requester, rs.req.Target})
}

// pendingFor returns copies of all pending requests targeting the identity.
func (s *requestStore) pendingFor(target uuid.UUID) []*peek.Request {
	var out []*peek.Request
	for _, rs := range s.byID {
		if rs.req.Target == target {
			cp := *rs.req
			out = append(out, &cp)
		}
	}
	return out
}

// involving returns the states of all pending requests the identity is part
// of, on either side.
func (s *requestStore) involving(id uuid.UUID) []*requestState {
	var out []*requestState
	for _, rs := range s.byID {
		if rs.req.Involves(id) {
			out = append(out, rs)
		}
	}
	return out
}

func (s *requestStore) len() int {
	return len(s.byID)
}
