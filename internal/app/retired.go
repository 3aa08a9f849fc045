package service

import (
	"container/list"
	"sync"

	"github.com/okian/interviewer/internal/domain/session"
)

const defaultRetainedSessions = 1000

// retiredSessions keeps terminated sessions reachable after their shutdown
// alarm so late callbacks still get the conclusion message. At most maxSize
// sessions are kept and the oldest is evicted first. A maxSize of zero or
// less disables eviction.
type retiredSessions struct {
	mu      sync.Mutex
	byID    map[string]*list.Element
	order   *list.List
	maxSize int
}

func newRetiredSessions(maxSize int) *retiredSessions {
	return &retiredSessions{
		byID:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
	}
}

func (r *retiredSessions) add(sess *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[sess.ID()]; ok {
		return
	}
	if r.maxSize > 0 && r.order.Len() >= r.maxSize {
		oldest := r.order.Front()
		r.order.Remove(oldest)
		delete(r.byID, oldest.Value.(*session.Session).ID())
	}
	r.byID[sess.ID()] = r.order.PushBack(sess)
}

func (r *retiredSessions) get(id string) (*session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*session.Session), true
}

func (r *retiredSessions) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}
