package gauntlet

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	blobs := newCountingStore()
	f := newFixtureWithStore(t, blobs)
	ctx := context.Background()

	if _, err := f.svc.Login(ctx, "natasha.romanoff@gmail.com"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	f.finish(t, "mind-gem-intro")
	if _, err := f.svc.JoinChallenge(ctx, "morning-routine"); err != nil {
		t.Fatalf("JoinChallenge: %v", err)
	}
	if _, err := f.svc.CompleteActivity(ctx, "morning-routine", ActivityData{}); err != nil {
		t.Fatalf("CompleteActivity: %v", err)
	}
	saved := f.svc.Snapshot(ctx)

	reloaded := newFixtureWithStore(t, blobs)
	got := reloaded.svc.Snapshot(ctx)

	if !reflect.DeepEqual(saved.Stones, got.Stones) {
		t.Fatalf("stones differ after reload:\nsaved %+v\ngot   %+v", saved.Stones, got.Stones)
	}
	if !reflect.DeepEqual(saved.Challenges, got.Challenges) {
		t.Fatalf("challenges differ after reload")
	}
	if !reflect.DeepEqual(saved.CurrentUser, got.CurrentUser) {
		t.Fatalf("user differs after reload:\nsaved %+v\ngot   %+v", saved.CurrentUser, got.CurrentUser)
	}
}

func TestLoadFallsBackToTemplate(t *testing.T) {
	valid := func(t *testing.T) Snapshot {
		f := newFixture(t)
		if _, err := f.svc.UpdateStoneProgress(context.Background(), StoneMind, 30, SourceManual); err != nil {
			t.Fatalf("UpdateStoneProgress: %v", err)
		}
		return f.svc.Snapshot(context.Background())
	}

	cases := map[string]func(t *testing.T) []byte{
		"not json": func(*testing.T) []byte { return []byte("{stones:") },
		"flagged new user": func(t *testing.T) []byte {
			snap := valid(t)
			snap.IsNewUser = true
			data, _ := json.Marshal(snap)
			return data
		},
		"progress out of range": func(t *testing.T) []byte {
			snap := valid(t)
			mind := snap.Stones[StoneMind]
			mind.Progress = 150
			snap.Stones[StoneMind] = mind
			data, _ := json.Marshal(snap)
			return data
		},
		"missing stone": func(t *testing.T) []byte {
			snap := valid(t)
			delete(snap.Stones, StoneSoul)
			data, _ := json.Marshal(snap)
			return data
		},
		"locked stone with progress": func(t *testing.T) []byte {
			snap := valid(t)
			power := snap.Stones[StonePower]
			power.Progress = 30
			snap.Stones[StonePower] = power
			data, _ := json.Marshal(snap)
			return data
		},
		"unknown rule": func(t *testing.T) []byte {
			snap := valid(t)
			snap.Challenges[0].UnlockCondition = UnlockCondition{Kind: "moon-phase"}
			data, _ := json.Marshal(snap)
			return data
		},
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			blobs := newCountingStore()
			if err := blobs.BlobStore.Put(context.Background(), SnapshotKey, build(t)); err != nil {
				t.Fatalf("seed: %v", err)
			}

			f := newFixtureWithStore(t, blobs)
			if mind := f.stone(t, StoneMind); mind.Progress != 15 {
				t.Fatalf("expected template mind at 15, got %d", mind.Progress)
			}
			if blobs.Puts() != 1 {
				t.Fatalf("expected the template to be persisted, got %d puts", blobs.Puts())
			}
		})
	}
}

func TestLoadPropagatesStoreFailure(t *testing.T) {
	blobs := newCountingStore()
	blobs.getErr = errors.New("disk on fire")

	_, err := NewService(context.Background(), blobs, newFakeClock(), &sequentialIDs{})
	if err == nil {
		t.Fatalf("expected store failure to surface")
	}
}

func TestFailedSaveRollsBackMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.svc.Snapshot(ctx)
	notesBefore, _ := f.svc.Notifications(ctx, 0)
	f.events.reset()

	f.store.failPuts(errors.New("backend down"))
	if _, err := f.svc.JoinChallenge(ctx, "mind-gem-intro"); err == nil {
		t.Fatalf("expected the save failure to surface")
	}

	ch := f.challenge(t, "mind-gem-intro")
	if ch.Status != ChallengeAvailable || ch.Participants != 1 {
		t.Fatalf("join leaked into memory: %+v", ch)
	}
	if mind := f.stone(t, StoneMind); mind.Progress != before.Stones[StoneMind].Progress {
		t.Fatalf("stone impact leaked into memory: progress %d", mind.Progress)
	}
	if got, _ := f.svc.Notifications(ctx, 0); len(got) != len(notesBefore) {
		t.Fatalf("notifications leaked into memory: %+v", got)
	}
	if types := f.events.types(); len(types) != 0 {
		t.Fatalf("failed join must not publish, got %v", types)
	}

	f.store.failPuts(nil)
	res, err := f.svc.JoinChallenge(ctx, "mind-gem-intro")
	if err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	if res.Challenge.Status != ChallengeActive || res.Challenge.Participants != 2 {
		t.Fatalf("unexpected challenge after retry: %+v", res.Challenge)
	}
}

func TestResetRestoresTemplateAndSignsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Login(ctx, "tony@stark.io"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	f.finish(t, "mind-gem-intro")

	if err := f.svc.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := f.svc.Profile(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after reset, got %v", err)
	}
	if ch := f.challenge(t, "mind-gem-intro"); ch.Status != ChallengeAvailable || ch.Progress != 0 {
		t.Fatalf("expected intro back to available, got %+v", ch)
	}
	if mind := f.stone(t, StoneMind); mind.Progress != 15 {
		t.Fatalf("expected mind back at 15, got %d", mind.Progress)
	}

	data, err := f.store.Get(ctx, SnapshotKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if snap.CurrentUser != nil || snap.Stones[StoneMind].Progress != 15 {
		t.Fatalf("reset was not persisted: %+v", snap)
	}
}
