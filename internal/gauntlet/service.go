package gauntlet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/focusnest/gauntlet-service/internal/store"
	"github.com/focusnest/gauntlet-service/shared/events"
	"github.com/focusnest/gauntlet-service/shared/logging"
	"github.com/focusnest/gauntlet-service/shared/pubsub"
)

// Option customizes a service at construction time.
type Option func(*service)

// WithPublisher routes stone, challenge and notification events to p.
func WithPublisher(p pubsub.Publisher) Option {
	return func(s *service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLatency delays every operation by d before it mutates anything.
func WithLatency(d time.Duration) Option {
	return func(s *service) {
		s.latency = d
	}
}

// WithRandom sets the random source for analytics and the social feed.
func WithRandom(r Random) Option {
	return func(s *service) {
		if r != nil {
			s.random = r
		}
	}
}

// service holds one session's simulator state. Every operation runs under
// mu, so concurrent callers are serialized and never lose updates.
type service struct {
	blobs     store.BlobStore
	clock     Clock
	ids       IDGenerator
	random    Random
	publisher pubsub.Publisher
	logger    *slog.Logger
	latency   time.Duration

	mu            sync.Mutex
	stones        map[StoneID]*Stone
	challenges    []*Challenge
	user          *User
	notifications []Notification
	lastNotifyID  int64
	social        SocialNetwork

	// per-operation scratch, reset by mutate
	outbox    []events.Envelope
	opUnlocks []Unlock
}

// NewService constructs the simulator and loads the persisted state, falling
// back to the new-user template when none is usable.
func NewService(ctx context.Context, blobs store.BlobStore, clock Clock, ids IDGenerator, opts ...Option) (Service, error) {
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}

	s := &service{
		blobs:     blobs,
		clock:     clock,
		ids:       ids,
		publisher: pubsub.NopPublisher(),
		logger:    logging.Discard(),
		social:    newSocialNetwork(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.random == nil {
		s.random = NewRandom(clock.Now().UnixNano())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	s.outbox = nil
	s.opUnlocks = nil
	return s, nil
}

// pause simulates a network round-trip. A context cancelled while waiting
// aborts the operation before anything changes.
func (s *service) pause(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// checkpoint is the in-memory state a failed mutation rolls back to.
type checkpoint struct {
	snap          Snapshot
	notifications []Notification
	lastNotifyID  int64
}

func (s *service) checkpointLocked() checkpoint {
	return checkpoint{
		snap:          s.snapshotLocked(),
		notifications: append([]Notification(nil), s.notifications...),
		lastNotifyID:  s.lastNotifyID,
	}
}

func (s *service) rollbackLocked(cp checkpoint) {
	s.restoreLocked(cp.snap)
	s.notifications = cp.notifications
	s.lastNotifyID = cp.lastNotifyID
}

// mutate runs fn under the lock, persists the snapshot once when fn succeeds
// and publishes the queued events after the lock is released. When fn or the
// save fails, the state is rolled back and nothing is published.
func (s *service) mutate(ctx context.Context, fn func() error) error {
	if err := s.pause(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.outbox = nil
	s.opUnlocks = nil
	cp := s.checkpointLocked()
	err := fn()
	if err == nil {
		err = s.saveLocked(ctx)
	}
	if err != nil {
		s.rollbackLocked(cp)
	}
	outbox := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.publish(ctx, outbox)
	return nil
}

// read runs fn under the lock without persisting.
func (s *service) read(ctx context.Context, fn func()) error {
	if err := s.pause(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	return nil
}

func (s *service) emit(topic, kind string, payload any) {
	s.outbox = append(s.outbox, events.Envelope{
		Topic:      topic,
		Type:       kind,
		OccurredAt: s.clock.Now().UTC(),
		Payload:    payload,
	})
}

func (s *service) publish(ctx context.Context, envs []events.Envelope) {
	for _, env := range envs {
		s.publisher.Publish(ctx, env)
	}
}

func (s *service) world() world {
	return world{stones: s.stones, challenges: s.challenges}
}

// evaluateLocked applies the unlock rules and records what changed.
func (s *service) evaluateLocked() []Unlock {
	unlocks := evaluateUnlocks(s.world())
	for _, u := range unlocks {
		if u.Kind != "stone" {
			continue
		}
		st := s.stones[StoneID(u.ID)]
		s.notifyLocked(NotifyStoneUnlocked, "Stone Unlocked!", fmt.Sprintf("The %s is now yours to ignite", st.Name))
		s.logger.Info("stone unlocked", slog.String("stoneId", u.ID))
	}
	s.opUnlocks = append(s.opUnlocks, unlocks...)
	return unlocks
}

func (s *service) Stones(ctx context.Context) ([]Stone, error) {
	var out []Stone
	err := s.read(ctx, func() {
		out = make([]Stone, 0, len(stoneOrder))
		for _, id := range stoneOrder {
			if st, ok := s.stones[id]; ok {
				out = append(out, cloneStone(*st))
			}
		}
	})
	return out, err
}

func (s *service) Stone(ctx context.Context, id StoneID) (Stone, error) {
	var (
		out Stone
		err error
	)
	if perr := s.read(ctx, func() {
		st, ok := s.stones[id]
		if !ok {
			err = newNotFound("stone", string(id), stoneIDStrings())
			return
		}
		out = cloneStone(*st)
	}); perr != nil {
		return Stone{}, perr
	}
	return out, err
}

// UpdateStoneProgress applies delta to an unlocked stone, ripples it one
// level deep to unlocked neighbours and evaluates the unlock rules.
func (s *service) UpdateStoneProgress(ctx context.Context, id StoneID, delta int, source string) (StoneUpdate, error) {
	if source == "" {
		source = SourceManual
	}
	var update StoneUpdate
	err := s.mutate(ctx, func() error {
		var err error
		update, err = s.updateStoneLocked(id, delta, source)
		return err
	})
	if err != nil {
		return StoneUpdate{}, err
	}
	return update, nil
}

func (s *service) updateStoneLocked(id StoneID, delta int, source string) (StoneUpdate, error) {
	st, ok := s.stones[id]
	if !ok {
		return StoneUpdate{}, newNotFound("stone", string(id), stoneIDStrings())
	}
	if !st.Unlocked {
		return StoneUpdate{}, fmt.Errorf("%w: %s", ErrStoneLocked, id)
	}

	ripples, leveledUp := applyProgress(s.stones, st, delta)
	st.RecentActivity = fmt.Sprintf("%+d progress from %s", delta, source)

	for _, u := range s.evaluateLocked() {
		if u.Kind == "stone" {
			ripples = append(ripples, RippleEffect{StoneID: StoneID(u.ID), Type: "unlock"})
		}
	}

	update := StoneUpdate{
		Success:       true,
		StoneID:       id,
		Stone:         cloneStone(*st),
		RippleEffects: ripples,
		LeveledUp:     leveledUp,
		Source:        source,
	}
	s.emit(pubsub.TopicWellnessUpdates, events.TypeStoneUpdate, update)
	return update, nil
}

func (s *service) Notify(ctx context.Context, kind, title, message string) Notification {
	s.mu.Lock()
	s.outbox = nil
	n := s.notifyLocked(kind, title, message)
	outbox := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	s.publish(ctx, outbox)
	return n
}

func (s *service) notifyLocked(kind, title, message string) Notification {
	now := s.clock.Now().UTC()
	id := now.UnixMilli()
	if id <= s.lastNotifyID {
		id = s.lastNotifyID + 1
	}
	s.lastNotifyID = id

	n := Notification{
		ID:        id,
		Type:      kind,
		Title:     title,
		Message:   message,
		Timestamp: now,
	}
	s.notifications = append(s.notifications, n)
	s.emit(pubsub.TopicNotifications, events.TypeNotification, n)
	return n
}

// Notifications lists notifications most-recent-first; limit <= 0 means all.
func (s *service) Notifications(ctx context.Context, limit int) ([]Notification, error) {
	var out []Notification
	err := s.read(ctx, func() {
		out = append([]Notification(nil), s.notifications...)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *service) MarkNotificationRead(ctx context.Context, id int64) (Notification, error) {
	var (
		out Notification
		err error
	)
	if perr := s.read(ctx, func() {
		for i := range s.notifications {
			if s.notifications[i].ID == id {
				s.notifications[i].Read = true
				out = s.notifications[i]
				return
			}
		}
		err = &NotFoundError{Kind: "notification", ID: fmt.Sprint(id)}
	}); perr != nil {
		return Notification{}, perr
	}
	return out, err
}

func (s *service) Snapshot(_ context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}
