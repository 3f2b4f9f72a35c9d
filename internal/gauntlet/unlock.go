package gauntlet

import "fmt"

// RuleKind enumerates the unlock rules understood by the evaluator.
type RuleKind string

const (
	RuleAlways                RuleKind = "always"
	RuleChallengeCompleted    RuleKind = "challenge-completed"
	RuleStoneQuestsCompleted  RuleKind = "stone-quests-completed"
	RuleTotalQuestsCompleted  RuleKind = "total-quests-completed"
	RuleStoneUnlocked         RuleKind = "stone-unlocked"
	RuleStoneProgressAtLeast  RuleKind = "stone-progress-at-least"
	RuleStonesAtLevel         RuleKind = "stones-at-level"
	RuleStonesUnlockedAtLeast RuleKind = "stones-unlocked-at-least"
	RuleAllStonesUnlocked     RuleKind = "all-stones-unlocked"
)

// UnlockCondition gates a stone or challenge. Only the params relevant to
// Kind are set.
type UnlockCondition struct {
	Kind        RuleKind `json:"kind"`
	ChallengeID string   `json:"challengeId,omitempty"`
	StoneID     StoneID  `json:"stoneId,omitempty"`
	Count       int      `json:"count,omitempty"`
	Level       int      `json:"level,omitempty"`
	Progress    int      `json:"progress,omitempty"`
}

func always() UnlockCondition { return UnlockCondition{Kind: RuleAlways} }

func challengeCompleted(id string) UnlockCondition {
	return UnlockCondition{Kind: RuleChallengeCompleted, ChallengeID: id}
}

func stoneQuestsCompleted(id StoneID, count int) UnlockCondition {
	return UnlockCondition{Kind: RuleStoneQuestsCompleted, StoneID: id, Count: count}
}

func totalQuestsCompleted(count int) UnlockCondition {
	return UnlockCondition{Kind: RuleTotalQuestsCompleted, Count: count}
}

func stoneUnlocked(id StoneID) UnlockCondition {
	return UnlockCondition{Kind: RuleStoneUnlocked, StoneID: id}
}

func stoneProgressAtLeast(id StoneID, progress int) UnlockCondition {
	return UnlockCondition{Kind: RuleStoneProgressAtLeast, StoneID: id, Progress: progress}
}

func stonesAtLevel(count, level int) UnlockCondition {
	return UnlockCondition{Kind: RuleStonesAtLevel, Count: count, Level: level}
}

func stonesUnlockedAtLeast(count int) UnlockCondition {
	return UnlockCondition{Kind: RuleStonesUnlockedAtLeast, Count: count}
}

func allStonesUnlocked() UnlockCondition {
	return UnlockCondition{Kind: RuleAllStonesUnlocked}
}

// Check reports whether the parameters are consistent with Kind.
func (c UnlockCondition) Check() error {
	switch c.Kind {
	case RuleAlways, RuleAllStonesUnlocked:
		return nil
	case RuleChallengeCompleted:
		if _, ok := challengeTemplateByID(c.ChallengeID); !ok {
			return fmt.Errorf("rule %s references unknown challenge %q", c.Kind, c.ChallengeID)
		}
	case RuleStoneQuestsCompleted:
		if !knownStone(c.StoneID) || c.Count <= 0 {
			return fmt.Errorf("rule %s needs a known stone and a positive count", c.Kind)
		}
	case RuleStoneUnlocked:
		if !knownStone(c.StoneID) {
			return fmt.Errorf("rule %s references unknown stone %q", c.Kind, c.StoneID)
		}
	case RuleStoneProgressAtLeast:
		if !knownStone(c.StoneID) || c.Progress < 0 || c.Progress > 100 {
			return fmt.Errorf("rule %s needs a known stone and progress in [0,100]", c.Kind)
		}
	case RuleTotalQuestsCompleted, RuleStonesUnlockedAtLeast:
		if c.Count <= 0 {
			return fmt.Errorf("rule %s needs a positive count", c.Kind)
		}
	case RuleStonesAtLevel:
		if c.Count <= 0 || c.Level <= 0 {
			return fmt.Errorf("rule %s needs a positive count and level", c.Kind)
		}
	default:
		return fmt.Errorf("unknown unlock rule %q", c.Kind)
	}
	return nil
}

// world is the read-only view a rule is evaluated against.
type world struct {
	stones     map[StoneID]*Stone
	challenges []*Challenge
}

// met evaluates the condition against w.
func (c UnlockCondition) met(w world) bool {
	switch c.Kind {
	case RuleAlways:
		return true
	case RuleChallengeCompleted:
		for _, ch := range w.challenges {
			if ch.ID == c.ChallengeID {
				return ch.Status == ChallengeCompleted
			}
		}
		return false
	case RuleStoneQuestsCompleted:
		n := 0
		for _, ch := range w.challenges {
			if ch.Status == ChallengeCompleted && containsStone(ch.Stones, c.StoneID) {
				n++
			}
		}
		return n >= c.Count
	case RuleTotalQuestsCompleted:
		n := 0
		for _, ch := range w.challenges {
			if ch.Status == ChallengeCompleted {
				n++
			}
		}
		return n >= c.Count
	case RuleStoneUnlocked:
		st, ok := w.stones[c.StoneID]
		return ok && st.Unlocked
	case RuleStoneProgressAtLeast:
		st, ok := w.stones[c.StoneID]
		return ok && st.Unlocked && st.Progress >= c.Progress
	case RuleStonesAtLevel:
		n := 0
		for _, st := range w.stones {
			if st.Unlocked && st.Level >= c.Level {
				n++
			}
		}
		return n >= c.Count
	case RuleStonesUnlockedAtLeast:
		n := 0
		for _, st := range w.stones {
			if st.Unlocked {
				n++
			}
		}
		return n >= c.Count
	case RuleAllStonesUnlocked:
		for _, id := range stoneOrder {
			if st, ok := w.stones[id]; !ok || !st.Unlocked {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func containsStone(ids []StoneID, id StoneID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// evaluateUnlocks applies every satisfied rule until nothing changes.
// Stones only move locked to unlocked and challenges only locked to
// available. The returned unlocks are in the order they happened.
func evaluateUnlocks(w world) []Unlock {
	var unlocked []Unlock
	for {
		changed := false
		for _, id := range stoneOrder {
			st, ok := w.stones[id]
			if !ok || st.Unlocked || !st.UnlockRule.met(w) {
				continue
			}
			unlockStone(st)
			unlocked = append(unlocked, Unlock{Kind: "stone", ID: string(id)})
			changed = true
		}
		for _, ch := range w.challenges {
			if ch.Status != ChallengeLocked || !ch.UnlockCondition.met(w) {
				continue
			}
			ch.Status = ChallengeAvailable
			unlocked = append(unlocked, Unlock{Kind: "challenge", ID: ch.ID})
			changed = true
		}
		if !changed {
			return unlocked
		}
	}
}
