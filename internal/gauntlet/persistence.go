package gauntlet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/focusnest/gauntlet-service/internal/store"
	"github.com/focusnest/gauntlet-service/shared/events"
	"github.com/focusnest/gauntlet-service/shared/pubsub"
)

// SnapshotKey is the single key the whole simulator state lives under.
const SnapshotKey = "wellness-gauntlet-data"

var validate = validator.New()

func (s *service) snapshotLocked() Snapshot {
	stones := make(map[StoneID]Stone, len(s.stones))
	for id, st := range s.stones {
		stones[id] = cloneStone(*st)
	}
	challenges := make([]Challenge, len(s.challenges))
	for i, ch := range s.challenges {
		challenges[i] = cloneChallenge(*ch)
	}
	var user *User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{
		Stones:      stones,
		Challenges:  challenges,
		CurrentUser: user,
		Timestamp:   s.clock.Now().UnixMilli(),
	}
}

func (s *service) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.snapshotLocked())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.blobs.Put(ctx, SnapshotKey, data); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// loadLocked restores the persisted state. Missing, flagged or malformed
// snapshots are replaced with the new-user template, which is saved right away.
func (s *service) loadLocked(ctx context.Context) error {
	data, err := s.blobs.Get(ctx, SnapshotKey)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Info("no saved state, starting from the new-user template")
		return s.resetLocked(ctx)
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	snap, err := DecodeSnapshot(data)
	if err != nil {
		s.logger.Warn("saved state rejected, starting from the new-user template", slog.String("error", err.Error()))
		return s.resetLocked(ctx)
	}
	if snap.IsNewUser {
		s.logger.Info("saved state flagged as new user, starting from the new-user template")
		return s.resetLocked(ctx)
	}

	s.restoreLocked(snap)
	if unlocks := s.evaluateLocked(); len(unlocks) > 0 {
		return s.saveLocked(ctx)
	}
	return nil
}

func (s *service) restoreLocked(snap Snapshot) {
	s.stones = make(map[StoneID]*Stone, len(snap.Stones))
	for id, st := range snap.Stones {
		st := cloneStone(st)
		s.stones[id] = &st
	}
	s.challenges = make([]*Challenge, len(snap.Challenges))
	for i, ch := range snap.Challenges {
		ch := cloneChallenge(ch)
		s.challenges[i] = &ch
	}
	s.user = nil
	if snap.CurrentUser != nil {
		u := *snap.CurrentUser
		s.user = &u
	}
}

// applyTemplateLocked replaces the state with the new-user template and
// signs the user out.
func (s *service) applyTemplateLocked() {
	s.stones = newStoneTemplate()
	s.challenges = newChallengeTemplate()
	s.user = nil
	s.notifications = nil
	s.evaluateLocked()
}

func (s *service) resetLocked(ctx context.Context) error {
	s.applyTemplateLocked()
	return s.saveLocked(ctx)
}

// Reset discards all progress and the signed-in user.
func (s *service) Reset(ctx context.Context) error {
	return s.mutate(ctx, func() error {
		s.applyTemplateLocked()
		s.emit(pubsub.TopicSession, events.TypeSessionReset, nil)
		s.logger.Info("session reset")
		return nil
	})
}

// DecodeSnapshot parses and validates a persisted snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.IsNewUser {
		return snap, nil
	}
	if err := validateSnapshot(snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return snap, nil
}

func validateSnapshot(snap Snapshot) error {
	if len(snap.Stones) != len(stoneOrder) {
		return fmt.Errorf("expected %d stones, got %d", len(stoneOrder), len(snap.Stones))
	}
	for _, id := range stoneOrder {
		st, ok := snap.Stones[id]
		if !ok {
			return fmt.Errorf("stone %s missing", id)
		}
		if err := validateStone(id, st); err != nil {
			return err
		}
	}

	if len(snap.Challenges) != len(challengeCatalog) {
		return fmt.Errorf("expected %d challenges, got %d", len(challengeCatalog), len(snap.Challenges))
	}
	seen := make(map[string]bool, len(snap.Challenges))
	for _, ch := range snap.Challenges {
		if _, ok := challengeTemplateByID(ch.ID); !ok {
			return fmt.Errorf("unknown challenge %q", ch.ID)
		}
		if seen[ch.ID] {
			return fmt.Errorf("duplicate challenge %q", ch.ID)
		}
		seen[ch.ID] = true
		if err := validate.Struct(ch); err != nil {
			return fmt.Errorf("challenge %s: %w", ch.ID, err)
		}
		if err := ch.UnlockCondition.Check(); err != nil {
			return fmt.Errorf("challenge %s: %w", ch.ID, err)
		}
		for _, impact := range ch.StoneImpact {
			if !knownStone(impact.StoneID) {
				return fmt.Errorf("challenge %s impacts unknown stone %q", ch.ID, impact.StoneID)
			}
		}
	}

	if snap.CurrentUser != nil {
		if err := validate.Struct(snap.CurrentUser); err != nil {
			return fmt.Errorf("current user: %w", err)
		}
	}
	return nil
}

func validateStone(id StoneID, st Stone) error {
	if st.ID != id {
		return fmt.Errorf("stone keyed %s carries id %s", id, st.ID)
	}
	if err := validate.Struct(st); err != nil {
		return fmt.Errorf("stone %s: %w", id, err)
	}
	if err := st.UnlockRule.Check(); err != nil {
		return fmt.Errorf("stone %s: %w", id, err)
	}
	for _, other := range st.ConnectedTo {
		if other == id || !knownStone(other) {
			return fmt.Errorf("stone %s has invalid connection %q", id, other)
		}
	}

	expected := st
	recomputeLevel(&expected)
	if !st.Unlocked && (st.Progress != 0 || st.Multiplier != 0) {
		return fmt.Errorf("locked stone %s carries progress", id)
	}
	if st.Level != expected.Level || st.Status != expected.Status {
		return fmt.Errorf("stone %s level/status inconsistent with progress", id)
	}
	return nil
}
