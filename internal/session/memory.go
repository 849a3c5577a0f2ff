package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"catgroom/internal/models"
)

const shardCount = 16

// MemoryStore keeps sessions in sharded maps so unrelated sessions never
// contend on one lock. Expired entries are dropped lazily on read and by a
// background sweep. A session that is processing outlives its TTL until it
// reaches a terminal state or the grace period (twice the TTL) elapses.
type MemoryStore struct {
	shards [shardCount]*shard
	ttl    time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	sess     Session
	touched  time.Time
	statusAt time.Time
}

// NewMemoryStore creates a store with the given TTL and starts the eviction
// sweep. Call Close to stop it.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{ttl: ttl, done: make(chan struct{})}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*entry)}
	}
	go s.sweep()
	return s
}

func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *MemoryStore) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	now := time.Now()
	sh := s.shardFor(id)
	sh.mu.Lock()
	sh.sessions[id] = &entry{
		sess:     Session{ID: id, CreatedAt: now, Status: StatusActive},
		touched:  now,
		statusAt: now,
	}
	sh.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(e, time.Now()) {
		delete(sh.sessions, id)
		return nil, ErrNotFound
	}
	e.touched = time.Now()
	snap := e.sess
	if e.sess.Image != nil {
		img := *e.sess.Image
		snap.Image = &img
	}
	return &snap, nil
}

func (s *MemoryStore) AttachImage(ctx context.Context, id string, img models.ImageAsset) (bool, error) {
	now := time.Now()
	img.UploadedAt = now
	return s.mutate(id, func(e *entry) {
		e.sess.Image = &img
		e.sess.Status = StatusProcessing
		e.statusAt = now
	})
}

func (s *MemoryStore) LinkCat(ctx context.Context, id string, catID int64) (bool, error) {
	return s.mutate(id, func(e *entry) {
		e.sess.CatID = catID
	})
}

func (s *MemoryStore) SetStatus(ctx context.Context, id string, status Status) (bool, error) {
	return s.mutate(id, func(e *entry) {
		e.sess.Status = status
		e.statusAt = time.Now()
	})
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.sessions[id]; !ok {
		return false, nil
	}
	delete(sh.sessions, id)
	return true, nil
}

func (s *MemoryStore) mutate(id string, fn func(*entry)) (bool, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.sessions[id]
	if !ok || s.expired(e, time.Now()) {
		delete(sh.sessions, id)
		return false, nil
	}
	fn(e)
	e.touched = time.Now()
	return true, nil
}

// expired applies the TTL policy: untouched entries expire after ttl, but a
// processing session is kept until it goes terminal or 2*ttl has passed
// since it entered processing.
func (s *MemoryStore) expired(e *entry, now time.Time) bool {
	if e.sess.Status == StatusProcessing {
		return now.Sub(e.statusAt) > 2*s.ttl
	}
	return now.Sub(e.touched) > s.ttl
}

func (s *MemoryStore) sweep() {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			for _, sh := range s.shards {
				sh.mu.Lock()
				for id, e := range sh.sessions {
					if s.expired(e, now) {
						delete(sh.sessions, id)
					}
				}
				sh.mu.Unlock()
			}
		}
	}
}
