package gauntlet

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/focusnest/gauntlet-service/internal/store"
	"github.com/focusnest/gauntlet-service/shared/events"
	"github.com/focusnest/gauntlet-service/shared/pubsub"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("user-%d", g.n)
}

// scriptedRandom replays fixed draws and returns zero once exhausted.
type scriptedRandom struct {
	ints   []int
	floats []float64
}

func (r *scriptedRandom) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0] % n
	r.ints = r.ints[1:]
	return v
}

func (r *scriptedRandom) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

// countingStore wraps the memory store and counts writes.
type countingStore struct {
	store.BlobStore
	mu     sync.Mutex
	puts   int
	getErr error
	putErr error
}

func newCountingStore() *countingStore {
	return &countingStore{BlobStore: store.NewMemoryStore()}
}

func (c *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.BlobStore.Get(ctx, key)
}

func (c *countingStore) Put(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	c.puts++
	putErr := c.putErr
	c.mu.Unlock()
	if putErr != nil {
		return putErr
	}
	return c.BlobStore.Put(ctx, key, data)
}

func (c *countingStore) failPuts(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putErr = err
}

func (c *countingStore) Puts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

type recorder struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (r *recorder) publisher() pubsub.Publisher {
	return pubsub.PublisherFunc(func(_ context.Context, env events.Envelope) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.envs = append(r.envs, env)
	})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.envs))
	for i, env := range r.envs {
		out[i] = env.Type
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = nil
}

type fixture struct {
	svc    *service
	store  *countingStore
	clock  *fakeClock
	events *recorder
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	return newFixtureWithStore(t, newCountingStore(), opts...)
}

func newFixtureWithStore(t *testing.T, blobs *countingStore, opts ...Option) fixture {
	t.Helper()
	clock := newFakeClock()
	rec := &recorder{}
	opts = append([]Option{WithPublisher(rec.publisher()), WithRandom(&scriptedRandom{})}, opts...)

	svc, err := NewService(context.Background(), blobs, clock, &sequentialIDs{}, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return fixture{svc: svc.(*service), store: blobs, clock: clock, events: rec}
}

func (f fixture) stone(t *testing.T, id StoneID) Stone {
	t.Helper()
	st, err := f.svc.Stone(context.Background(), id)
	if err != nil {
		t.Fatalf("Stone(%s): %v", id, err)
	}
	return st
}

func (f fixture) challenge(t *testing.T, id string) Challenge {
	t.Helper()
	ch, err := f.svc.Challenge(context.Background(), id)
	if err != nil {
		t.Fatalf("Challenge(%s): %v", id, err)
	}
	return ch
}

// finish joins and completes a challenge until it is done.
func (f fixture) finish(t *testing.T, id string) ActivityResult {
	t.Helper()
	ctx := context.Background()
	if _, err := f.svc.JoinChallenge(ctx, id); err != nil {
		t.Fatalf("JoinChallenge(%s): %v", id, err)
	}
	for {
		res, err := f.svc.CompleteActivity(ctx, id, ActivityData{})
		if err != nil {
			t.Fatalf("CompleteActivity(%s): %v", id, err)
		}
		if res.IsCompleted {
			return res
		}
	}
}

func hasUnlock(unlocks []Unlock, kind, id string) bool {
	for _, u := range unlocks {
		if u.Kind == kind && u.ID == id {
			return true
		}
	}
	return false
}
