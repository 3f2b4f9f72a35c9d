package gauntlet

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewServiceStartsFromTemplate(t *testing.T) {
	f := newFixture(t)

	mind := f.stone(t, StoneMind)
	if !mind.Unlocked || mind.Progress != 15 || mind.Level != 1 || mind.Energy != 20 || mind.Multiplier != 1.0 {
		t.Fatalf("unexpected mind stone: %+v", mind)
	}
	if mind.Status != StatusDim {
		t.Fatalf("expected dim mind, got %s", mind.Status)
	}

	for _, id := range []StoneID{StonePower, StoneSpace, StoneReality, StoneSoul, StoneTime} {
		st := f.stone(t, id)
		if st.Unlocked || st.Progress != 0 || st.Level != 0 || st.Multiplier != 0 || st.Status != StatusLocked {
			t.Fatalf("expected %s locked at zero, got %+v", id, st)
		}
	}

	if f.store.Puts() != 1 {
		t.Fatalf("expected the template to be saved once, got %d puts", f.store.Puts())
	}
	if got := f.challenge(t, "mind-gem-intro").Status; got != ChallengeAvailable {
		t.Fatalf("expected intro available, got %s", got)
	}
	if got := f.challenge(t, "morning-routine").Status; got != ChallengeLocked {
		t.Fatalf("expected morning-routine locked, got %s", got)
	}
}

func TestUpdateStoneProgressFromTemplate(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.UpdateStoneProgress(context.Background(), StoneMind, 25, "quest")
	if err != nil {
		t.Fatalf("UpdateStoneProgress: %v", err)
	}
	if res.Stone.Progress != 40 || res.Stone.Level != 3 {
		t.Fatalf("expected progress 40 level 3, got %d/%d", res.Stone.Progress, res.Stone.Level)
	}
	if len(res.RippleEffects) != 0 {
		t.Fatalf("expected no ripple effects with only locked neighbours, got %+v", res.RippleEffects)
	}
	if !res.LeveledUp || res.Source != "quest" || !res.Success {
		t.Fatalf("unexpected result flags: %+v", res)
	}
	if res.Stone.Energy != 32 {
		t.Fatalf("expected energy 20+12, got %d", res.Stone.Energy)
	}
	if res.Stone.Status != StatusGlowing {
		t.Fatalf("expected glowing at 40, got %s", res.Stone.Status)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != "stone-update" {
		t.Fatalf("expected one stone-update event, got %v", got)
	}
	if f.store.Puts() != 2 {
		t.Fatalf("expected one save for the update, got %d puts", f.store.Puts())
	}
}

func TestUpdateStoneProgressClampsAndKeepsLevelFormula(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, delta := range []int{500, -7, 33, -1000, 19, 1} {
		res, err := f.svc.UpdateStoneProgress(ctx, StoneMind, delta, SourceManual)
		if err != nil {
			t.Fatalf("UpdateStoneProgress(%d): %v", delta, err)
		}
		st := res.Stone
		if st.Progress < 0 || st.Progress > 100 || st.Energy < 0 || st.Energy > 100 {
			t.Fatalf("delta %d left stone out of range: %+v", delta, st)
		}
		if st.Level != st.Progress/20+1 {
			t.Fatalf("delta %d broke level formula: progress %d level %d", delta, st.Progress, st.Level)
		}
	}

	if st := f.stone(t, StoneMind); st.Progress != 20 || st.Level != 2 {
		t.Fatalf("expected 0+19+1 = 20 at level 2, got %+v", st)
	}
}

func TestUpdateStoneProgressSaturatesExtremeDeltas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.UpdateStoneProgress(ctx, StoneMind, math.MaxInt, SourceManual)
	if err != nil {
		t.Fatalf("UpdateStoneProgress(MaxInt): %v", err)
	}
	if res.Stone.Progress != 100 || res.Stone.Level != 6 || res.Stone.Energy != 70 || !res.LeveledUp {
		t.Fatalf("expected mind saturated at 100, got %+v (leveledUp=%v)", res.Stone, res.LeveledUp)
	}

	res, err = f.svc.UpdateStoneProgress(ctx, StoneMind, math.MinInt, SourceManual)
	if err != nil {
		t.Fatalf("UpdateStoneProgress(MinInt): %v", err)
	}
	if res.Stone.Progress != 0 || res.Stone.Level != 1 || res.Stone.Energy != 20 {
		t.Fatalf("expected mind floored at 0, got %+v", res.Stone)
	}
	for _, r := range res.RippleEffects {
		if r.Type == "ripple" && (r.Change < -30 || r.Change > 30) {
			t.Fatalf("ripple computed from unsaturated delta: %+v", r)
		}
	}
}

func TestUpdateStoneProgressUnknownStoneSuggestsAndDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	before := f.svc.Snapshot(context.Background())
	puts := f.store.Puts()

	_, err := f.svc.UpdateStoneProgress(context.Background(), "mnd", 10, SourceManual)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Suggestion != "mind" {
		t.Fatalf("expected suggestion mind, got %+v", nf)
	}

	after := f.svc.Snapshot(context.Background())
	if f.store.Puts() != puts {
		t.Fatalf("unknown stone must not persist")
	}
	if after.Stones[StoneMind].Progress != before.Stones[StoneMind].Progress {
		t.Fatalf("unknown stone must not mutate state")
	}
}

func TestUpdateStoneProgressRejectsLockedStone(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateStoneProgress(context.Background(), StonePower, 10, SourceManual)
	if !errors.Is(err, ErrStoneLocked) {
		t.Fatalf("expected ErrStoneLocked, got %v", err)
	}
	if st := f.stone(t, StonePower); st.Progress != 0 || st.Level != 0 {
		t.Fatalf("locked stone changed: %+v", st)
	}
}

func TestRippleReachesOnlyDirectUnlockedNeighbours(t *testing.T) {
	f := newFixture(t)
	unlockStone(f.svc.stones[StoneSpace])
	unlockStone(f.svc.stones[StoneTime])

	res, err := f.svc.UpdateStoneProgress(context.Background(), StoneMind, 20, SourceManual)
	if err != nil {
		t.Fatalf("UpdateStoneProgress: %v", err)
	}

	if len(res.RippleEffects) != 1 {
		t.Fatalf("expected a single ripple, got %+v", res.RippleEffects)
	}
	ripple := res.RippleEffects[0]
	if ripple.StoneID != StoneSpace || ripple.Change != 6 || ripple.Type != "ripple" {
		t.Fatalf("unexpected ripple: %+v", ripple)
	}

	space := f.stone(t, StoneSpace)
	if space.Progress != 6 || space.Energy != 1 || space.Level != 1 {
		t.Fatalf("unexpected space after ripple: %+v", space)
	}
	// space connects to time, but ripples never cascade
	if tm := f.stone(t, StoneTime); tm.Progress != 0 {
		t.Fatalf("ripple cascaded to time: %+v", tm)
	}
	if mind := f.stone(t, StoneMind); mind.Progress != 35 {
		t.Fatalf("target must receive only its own delta, got %d", mind.Progress)
	}
}

func TestRippleClampsEnergyAndFloorsNegativeDeltas(t *testing.T) {
	f := newFixture(t)
	space := f.svc.stones[StoneSpace]
	unlockStone(space)
	space.Energy = 100
	space.Progress = 2
	recomputeLevel(space)

	if _, err := f.svc.UpdateStoneProgress(context.Background(), StoneMind, 50, SourceManual); err != nil {
		t.Fatalf("UpdateStoneProgress: %v", err)
	}
	if st := f.stone(t, StoneSpace); st.Energy != 100 || st.Progress != 17 {
		t.Fatalf("expected energy clamped at 100 and progress 2+15, got %+v", st)
	}

	res, err := f.svc.UpdateStoneProgress(context.Background(), StoneMind, -10, SourceManual)
	if err != nil {
		t.Fatalf("UpdateStoneProgress: %v", err)
	}
	if res.RippleEffects[0].Change != -3 {
		t.Fatalf("expected floor(-10*0.3) = -3, got %d", res.RippleEffects[0].Change)
	}
	if st := f.stone(t, StoneSpace); st.Progress != 14 || st.Energy != 100 {
		t.Fatalf("unexpected space after negative ripple: %+v", st)
	}
}

func TestRealityAtFiftyUnlocksSoulAndReportsIt(t *testing.T) {
	f := newFixture(t)
	reality := f.svc.stones[StoneReality]
	unlockStone(reality)
	reality.Progress = 45
	recomputeLevel(reality)

	res, err := f.svc.UpdateStoneProgress(context.Background(), StoneReality, 5, SourceManual)
	if err != nil {
		t.Fatalf("UpdateStoneProgress: %v", err)
	}

	var sawUnlock bool
	for _, effect := range res.RippleEffects {
		if effect.StoneID == StoneSoul {
			if effect.Type != "unlock" {
				t.Fatalf("locked soul must not receive a ripple: %+v", effect)
			}
			sawUnlock = true
		}
	}
	if !sawUnlock {
		t.Fatalf("expected soul unlock in ripple effects, got %+v", res.RippleEffects)
	}

	soul := f.stone(t, StoneSoul)
	if !soul.Unlocked || soul.Level != 1 || soul.Progress != 0 || soul.Multiplier != 1.0 || soul.Status != StatusDim {
		t.Fatalf("unexpected soul after unlock: %+v", soul)
	}
}

func TestCancelledContextDuringLatencyDoesNotMutate(t *testing.T) {
	f := newFixture(t, WithLatency(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.svc.UpdateStoneProgress(ctx, StoneMind, 10, SourceManual); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.svc.stones[StoneMind].Progress != 15 {
		t.Fatalf("cancelled update mutated state")
	}
}
