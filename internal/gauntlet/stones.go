package gauntlet

import "math"

// stoneOrder is the registry order used for listings and tie-breaking.
var stoneOrder = []StoneID{StoneMind, StonePower, StoneSpace, StoneReality, StoneSoul, StoneTime}

type stoneDefinition struct {
	name        string
	color       string
	icon        string
	description string
	abilities   []string
	connectedTo []StoneID
	rule        UnlockCondition
	requirement string
}

var stoneRegistry = map[StoneID]stoneDefinition{
	StoneMind: {
		name:        "Mind Stone",
		color:       "#ffff00",
		icon:        "🧠",
		description: "Your first stone - ignite it with mindfulness",
		abilities:   []string{"Meditation", "Mindfulness", "Mental Clarity"},
		connectedTo: []StoneID{StoneSpace},
		rule:        always(),
	},
	StonePower: {
		name:        "Power Stone",
		color:       "#8a2be2",
		icon:        "💪",
		description: "Unlock with 3 days of Mind Gem activity",
		abilities:   []string{"Strength", "Endurance", "Physical Power"},
		connectedTo: []StoneID{StoneReality, StoneSpace},
		rule:        stoneQuestsCompleted(StoneMind, 3),
		requirement: "Complete 3 Mind Stone quests",
	},
	StoneSpace: {
		name:        "Space Stone",
		color:       "#0066ff",
		icon:        "🌌",
		description: "Unlock with Power Stone activation",
		abilities:   []string{"Travel", "Exploration", "Adventure"},
		connectedTo: []StoneID{StoneTime, StoneMind},
		rule:        challengeCompleted("power-stone-unlock"),
		requirement: "Complete Power Stone intro quest",
	},
	StoneReality: {
		name:        "Reality Stone",
		color:       "#ff0000",
		icon:        "🔮",
		description: "Unlock with Space Stone mastery",
		abilities:   []string{"Goal Setting", "Visualization", "Life Balance"},
		connectedTo: []StoneID{StoneSoul, StonePower},
		rule:        stonesAtLevel(2, 3),
		requirement: "Bring 2 gems to level 3",
	},
	StoneSoul: {
		name:        "Soul Stone",
		color:       "#ff8c00",
		icon:        "❤️",
		description: "Unlock with Reality Stone wisdom",
		abilities:   []string{"Relationships", "Emotional Wellness", "Empathy"},
		connectedTo: []StoneID{StoneReality, StoneTime},
		rule:        stoneProgressAtLeast(StoneReality, 50),
		requirement: "Raise the Reality Stone to 50% progress",
	},
	StoneTime: {
		name:        "Time Stone",
		color:       "#00ff00",
		icon:        "⏰",
		description: "Final stone - unlock with all others mastered",
		abilities:   []string{"Time Management", "Productivity", "Life Balance"},
		connectedTo: []StoneID{StoneSpace, StoneSoul},
		rule:        stonesUnlockedAtLeast(5),
		requirement: "Unlock every other stone",
	},
}

func knownStone(id StoneID) bool {
	_, ok := stoneRegistry[id]
	return ok
}

func stoneIDStrings() []string {
	out := make([]string, len(stoneOrder))
	for i, id := range stoneOrder {
		out[i] = string(id)
	}
	return out
}

// newStoneTemplate returns the starting stones for a new player: mind is
// unlocked at progress 15, everything else is locked at zero.
func newStoneTemplate() map[StoneID]*Stone {
	stones := make(map[StoneID]*Stone, len(stoneOrder))
	for _, id := range stoneOrder {
		def := stoneRegistry[id]
		st := &Stone{
			ID:                id,
			Name:              def.name,
			ColorToken:        def.color,
			Icon:              def.icon,
			Description:       def.description,
			Abilities:         append([]string(nil), def.abilities...),
			ConnectedTo:       append([]StoneID(nil), def.connectedTo...),
			UnlockRule:        def.rule,
			UnlockRequirement: def.requirement,
			Status:            StatusLocked,
			RecentActivity:    "Locked",
		}
		stones[id] = st
	}

	mind := stones[StoneMind]
	mind.Unlocked = true
	mind.Progress = 15
	mind.Energy = 20
	mind.Multiplier = 1.0
	mind.RecentActivity = "Ready to begin your journey"
	recomputeLevel(mind)
	return stones
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func levelFor(progress int) int {
	return progress/20 + 1
}

// recomputeLevel restores the level and status invariants after progress
// changed.
func recomputeLevel(st *Stone) {
	if !st.Unlocked {
		st.Level = 0
		st.Status = StatusLocked
		return
	}
	st.Level = levelFor(st.Progress)
	if st.Progress >= 40 {
		st.Status = StatusGlowing
	} else {
		st.Status = StatusDim
	}
}

func unlockStone(st *Stone) {
	st.Unlocked = true
	st.Multiplier = 1.0
	st.RecentActivity = "Unlocked"
	recomputeLevel(st)
}

// applyProgress mutates target and its unlocked neighbours. It does not
// evaluate unlock rules. Deltas beyond ±100 cannot change a clamped value and
// are saturated first so the sums never overflow.
func applyProgress(stones map[StoneID]*Stone, target *Stone, delta int) (ripples []RippleEffect, leveledUp bool) {
	oldLevel := target.Level
	delta = clamp(delta, -100, 100)

	target.Progress = clamp(target.Progress+delta, 0, 100)
	target.Energy = clamp(target.Energy+int(float64(delta)*0.5), 0, 100)

	ripples = []RippleEffect{}
	rippleAmount := int(math.Floor(float64(delta) * 0.3 * target.Multiplier))
	for _, id := range target.ConnectedTo {
		neighbour, ok := stones[id]
		if !ok || neighbour == target || !neighbour.Unlocked {
			continue
		}
		neighbour.Progress = clamp(neighbour.Progress+rippleAmount, 0, 100)
		neighbour.Energy = clamp(neighbour.Energy+int(float64(rippleAmount)*0.2), 0, 100)
		recomputeLevel(neighbour)
		ripples = append(ripples, RippleEffect{StoneID: id, Change: rippleAmount, Type: "ripple"})
	}

	recomputeLevel(target)
	return ripples, target.Level > oldLevel
}
