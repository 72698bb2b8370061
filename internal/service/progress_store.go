package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"campus_hunt_backend/internal/config"
	"campus_hunt_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

// ProgressStore keeps each participant's per-hunt progress for the
// lifetime of their session. Get returns (nil, nil) when no progress
// exists yet; Save refreshes the session TTL.
type ProgressStore interface {
	Get(ctx context.Context, participantID string, huntID uint) (*model.HuntProgress, error)
	Save(ctx context.Context, participantID string, progress *model.HuntProgress) error
	List(ctx context.Context, participantID string) ([]*model.HuntProgress, error)
	Clear(ctx context.Context, participantID string) error
}

// NewProgressStore prefers Redis so progress survives restarts and
// multiple instances; without Redis it degrades to in-process memory.
func NewProgressStore(cfg *config.Config, rdb *redis.Client) ProgressStore {
	if rdb != nil {
		return NewRedisProgressStore(rdb, cfg.Session.TTL)
	}
	return NewMemoryProgressStore(cfg.Session.TTL)
}

// RedisProgressStore stores one hash per participant, one field per
// hunt, with a sliding expiry on the whole hash.
type RedisProgressStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisProgressStore(client *redis.Client, ttl time.Duration) *RedisProgressStore {
	return &RedisProgressStore{Client: client, TTL: ttl}
}

func progressKey(participantID string) string {
	return fmt.Sprintf("hunt:progress:%s", participantID)
}

func (s *RedisProgressStore) Get(ctx context.Context, participantID string, huntID uint) (*model.HuntProgress, error) {
	raw, err := s.Client.HGet(ctx, progressKey(participantID), strconv.FormatUint(uint64(huntID), 10)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var progress model.HuntProgress
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		return nil, err
	}
	progress.EnsureMaps()
	return &progress, nil
}

func (s *RedisProgressStore) Save(ctx context.Context, participantID string, progress *model.HuntProgress) error {
	raw, err := json.Marshal(progress)
	if err != nil {
		return err
	}

	key := progressKey(participantID)
	if err := s.Client.HSet(ctx, key, strconv.FormatUint(uint64(progress.HuntID), 10), raw).Err(); err != nil {
		return err
	}
	return s.Client.Expire(ctx, key, s.TTL).Err()
}

func (s *RedisProgressStore) List(ctx context.Context, participantID string) ([]*model.HuntProgress, error) {
	entries, err := s.Client.HGetAll(ctx, progressKey(participantID)).Result()
	if err != nil {
		return nil, err
	}

	progresses := make([]*model.HuntProgress, 0, len(entries))
	for _, raw := range entries {
		var progress model.HuntProgress
		if err := json.Unmarshal([]byte(raw), &progress); err != nil {
			continue
		}
		progress.EnsureMaps()
		progresses = append(progresses, &progress)
	}
	sort.Slice(progresses, func(i, j int) bool {
		return progresses[i].HuntID < progresses[j].HuntID
	})
	return progresses, nil
}

func (s *RedisProgressStore) Clear(ctx context.Context, participantID string) error {
	return s.Client.Del(ctx, progressKey(participantID)).Err()
}

// MemoryProgressStore is the single-instance fallback. Sessions idle
// past the TTL are swept by a background ticker.
type MemoryProgressStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*participantSession
}

type participantSession struct {
	progress map[uint]*model.HuntProgress
	lastSeen time.Time
}

func NewMemoryProgressStore(ttl time.Duration) *MemoryProgressStore {
	s := &MemoryProgressStore{
		ttl:      ttl,
		sessions: make(map[string]*participantSession),
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			s.sweep()
		}
	}()

	return s
}

func (s *MemoryProgressStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if time.Since(session.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *MemoryProgressStore) Get(ctx context.Context, participantID string, huntID uint) (*model.HuntProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[participantID]
	if !ok {
		return nil, nil
	}
	session.lastSeen = time.Now()

	progress, ok := session.progress[huntID]
	if !ok {
		return nil, nil
	}

	// Hand out a copy; callers mutate and save explicitly.
	copied, err := cloneProgress(progress)
	if err != nil {
		return nil, err
	}
	return copied, nil
}

func (s *MemoryProgressStore) Save(ctx context.Context, participantID string, progress *model.HuntProgress) error {
	copied, err := cloneProgress(progress)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[participantID]
	if !ok {
		session = &participantSession{progress: make(map[uint]*model.HuntProgress)}
		s.sessions[participantID] = session
	}
	session.lastSeen = time.Now()
	session.progress[progress.HuntID] = copied
	return nil
}

func (s *MemoryProgressStore) List(ctx context.Context, participantID string) ([]*model.HuntProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[participantID]
	if !ok {
		return nil, nil
	}
	session.lastSeen = time.Now()

	progresses := make([]*model.HuntProgress, 0, len(session.progress))
	for _, progress := range session.progress {
		copied, err := cloneProgress(progress)
		if err != nil {
			return nil, err
		}
		progresses = append(progresses, copied)
	}
	sort.Slice(progresses, func(i, j int) bool {
		return progresses[i].HuntID < progresses[j].HuntID
	})
	return progresses, nil
}

func (s *MemoryProgressStore) Clear(ctx context.Context, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, participantID)
	return nil
}

func cloneProgress(progress *model.HuntProgress) (*model.HuntProgress, error) {
	raw, err := json.Marshal(progress)
	if err != nil {
		return nil, err
	}
	var copied model.HuntProgress
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, err
	}
	copied.EnsureMaps()
	return &copied, nil
}
