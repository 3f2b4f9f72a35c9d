package gauntlet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/focusnest/gauntlet-service/shared/events"
	"github.com/focusnest/gauntlet-service/shared/pubsub"
)

// ChallengeJoined is the payload of challenge-joined events.
type ChallengeJoined struct {
	ChallengeID  string        `json:"challengeId"`
	StoneUpdates []StoneUpdate `json:"stoneUpdates"`
}

// ChallengeActivity is the payload of challenge-activity events.
type ChallengeActivity struct {
	ChallengeID  string        `json:"challengeId"`
	StoneUpdates []StoneUpdate `json:"stoneUpdates"`
	IsCompleted  bool          `json:"isCompleted"`
	Activity     ActivityData  `json:"activity"`
}

func (s *service) Challenges(ctx context.Context) ([]Challenge, error) {
	var out []Challenge
	err := s.read(ctx, func() {
		out = make([]Challenge, len(s.challenges))
		for i, ch := range s.challenges {
			out[i] = cloneChallenge(*ch)
		}
	})
	return out, err
}

func (s *service) Challenge(ctx context.Context, id string) (Challenge, error) {
	var (
		out Challenge
		err error
	)
	if perr := s.read(ctx, func() {
		var ch *Challenge
		ch, err = s.challengeLocked(id)
		if err == nil {
			out = cloneChallenge(*ch)
		}
	}); perr != nil {
		return Challenge{}, perr
	}
	return out, err
}

func (s *service) challengeLocked(id string) (*Challenge, error) {
	for _, ch := range s.challenges {
		if ch.ID == id {
			return ch, nil
		}
	}
	return nil, newNotFound("challenge", id, challengeIDStrings())
}

// JoinChallenge activates an available challenge and applies its stone
// impacts in order.
func (s *service) JoinChallenge(ctx context.Context, id string) (JoinResult, error) {
	var result JoinResult
	err := s.mutate(ctx, func() error {
		ch, err := s.challengeLocked(id)
		if err != nil {
			return err
		}
		switch ch.Status {
		case ChallengeLocked:
			return fmt.Errorf("%w: %s", ErrChallengeLocked, id)
		case ChallengeActive:
			return fmt.Errorf("%w: %s", ErrChallengeActive, id)
		case ChallengeCompleted:
			return fmt.Errorf("%w: %s", ErrChallengeCompleted, id)
		}

		ch.Participants++
		ch.Status = ChallengeActive
		if s.user != nil {
			s.user.ActiveChallenges++
		}

		updates := s.applyImpactsLocked(ch.StoneImpact, 1, SourceChallengeJoin)
		s.notifyLocked(NotifyChallengeJoined, "Challenge Joined!", fmt.Sprintf("You've joined %q", ch.Title))
		s.evaluateLocked()

		result = JoinResult{
			Success:      true,
			Challenge:    cloneChallenge(*ch),
			StoneUpdates: updates,
			Unlocked:     append([]Unlock(nil), s.opUnlocks...),
			Message:      fmt.Sprintf("Successfully joined %s!", ch.Title),
		}
		s.emit(pubsub.TopicWellnessUpdates, events.TypeChallengeJoined, ChallengeJoined{
			ChallengeID:  ch.ID,
			StoneUpdates: updates,
		})
		s.logger.Info("challenge joined", slog.String("challengeId", ch.ID))
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}
	return result, nil
}

// CompleteActivity records one day of progress on a challenge. The call that
// reaches the duration completes the challenge and credits the full reward on
// top of the per-activity share.
func (s *service) CompleteActivity(ctx context.Context, id string, activity ActivityData) (ActivityResult, error) {
	if err := validate.Struct(activity); err != nil {
		return ActivityResult{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	var result ActivityResult
	err := s.mutate(ctx, func() error {
		ch, err := s.challengeLocked(id)
		if err != nil {
			return err
		}
		switch ch.Status {
		case ChallengeLocked:
			return fmt.Errorf("%w: %s", ErrChallengeLocked, id)
		case ChallengeCompleted:
			return fmt.Errorf("%w: %s", ErrChallengeCompleted, id)
		case ChallengeAvailable:
			ch.Status = ChallengeActive
			if s.user != nil {
				s.user.ActiveChallenges++
			}
		}

		ch.Progress++
		updates := s.applyImpactsLocked(ch.StoneImpact, difficultyMultiplier(ch.Difficulty), SourceActivityComplete)

		xp := 0
		if s.user != nil {
			partial := ch.Rewards.XP / 10
			s.user.TotalXP += partial
			xp += partial
			touchStreak(s.user, s.clock.Now())
		}

		isCompleted := ch.Progress >= ch.Duration
		if isCompleted {
			ch.Status = ChallengeCompleted
			if s.user != nil {
				s.user.TotalXP += ch.Rewards.XP
				xp += ch.Rewards.XP
				s.user.CompletedChallenges++
				if s.user.ActiveChallenges > 0 {
					s.user.ActiveChallenges--
				}
			}
			s.notifyLocked(NotifyChallengeCompleted, "Challenge Mastered!", fmt.Sprintf("Congratulations! You've completed %q", ch.Title))
			s.logger.Info("challenge completed", slog.String("challengeId", ch.ID), slog.Int("xp", xp))
		}
		s.evaluateLocked()

		result = ActivityResult{
			Success:      true,
			Challenge:    cloneChallenge(*ch),
			StoneUpdates: updates,
			Unlocked:     append([]Unlock(nil), s.opUnlocks...),
			IsCompleted:  isCompleted,
			XPGained:     xp,
		}
		s.emit(pubsub.TopicWellnessUpdates, events.TypeChallengeActivity, ChallengeActivity{
			ChallengeID:  ch.ID,
			StoneUpdates: updates,
			IsCompleted:  isCompleted,
			Activity:     activity,
		})
		return nil
	})
	if err != nil {
		return ActivityResult{}, err
	}
	return result, nil
}

// applyImpactsLocked runs the impacts sequentially. Impacts on locked stones
// are reported as skipped.
func (s *service) applyImpactsLocked(impacts []StoneImpact, multiplier float64, source string) []StoneUpdate {
	updates := make([]StoneUpdate, 0, len(impacts))
	for _, impact := range impacts {
		change := int(float64(impact.Change) * multiplier)
		update, err := s.updateStoneLocked(impact.StoneID, change, source)
		if err != nil {
			skipped := StoneUpdate{
				StoneID:       impact.StoneID,
				RippleEffects: []RippleEffect{},
				Source:        source,
				Skipped:       true,
				Reason:        err.Error(),
			}
			if st, ok := s.stones[impact.StoneID]; ok {
				skipped.Stone = cloneStone(*st)
			}
			updates = append(updates, skipped)
			continue
		}
		updates = append(updates, update)
	}
	return updates
}

// touchStreak counts consecutive active days: same day keeps the streak,
// the next day extends it and any gap restarts it at one.
func touchStreak(u *User, now time.Time) {
	today := startOfDay(now)
	last := u.LastActiveDate
	switch {
	case last.IsZero():
		u.Streak = 1
	case today.Equal(last):
		if u.Streak == 0 {
			u.Streak = 1
		}
	case today.Equal(last.AddDate(0, 0, 1)):
		u.Streak++
	case today.After(last):
		u.Streak = 1
	default:
		// clock went backwards; keep what we have
		return
	}
	u.LastActiveDate = today
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
