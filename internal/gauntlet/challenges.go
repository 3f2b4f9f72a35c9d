package gauntlet

// challengeCatalog is the static challenge template. Statuses are derived
// from the unlock conditions when a template is instantiated.
var challengeCatalog = []Challenge{
	{
		ID:              "mind-gem-intro",
		Title:           "🧠 Ignite the Mind Gem",
		Description:     "Perform one act of mindfulness to ignite your first Infinity Stone. This is your first step towards cosmic wellness balance.",
		Type:            "intro-quest",
		QuestType:       "intro",
		Duration:        1,
		Difficulty:      DifficultyBeginner,
		Stones:          []StoneID{StoneMind},
		StoneImpact:     []StoneImpact{{StoneID: StoneMind, Change: 25}},
		Rewards:         Rewards{XP: 100, Energy: 25},
		Participants:    1,
		UnlockCondition: always(),
	},
	{
		ID:              "morning-routine",
		Title:           "🌅 Morning Mindfulness",
		Description:     "Establish a mindful morning routine to strengthen your Mind Gem",
		Type:            "habit",
		Duration:        7,
		Difficulty:      DifficultyEasy,
		Stones:          []StoneID{StoneMind},
		StoneImpact:     []StoneImpact{{StoneID: StoneMind, Change: 15}},
		Rewards:         Rewards{XP: 200, Energy: 20},
		Participants:    45,
		UnlockCondition: challengeCompleted("mind-gem-intro"),
	},
	{
		ID:              "mindfulness-journey",
		Title:           "🧘 3-Minute Meditation",
		Description:     "Practice mindfulness meditation to deepen your Mind Gem connection",
		Type:            "mental",
		Duration:        1,
		Difficulty:      DifficultyEasy,
		Stones:          []StoneID{StoneMind},
		StoneImpact:     []StoneImpact{{StoneID: StoneMind, Change: 10}},
		Rewards:         Rewards{XP: 100, Energy: 10},
		Participants:    234,
		UnlockCondition: challengeCompleted("mind-gem-intro"),
	},
	{
		ID:              "power-stone-unlock",
		Title:           "💪 Unlock the Power Stone",
		Description:     "Complete 3 Mind Gem quests to unlock the Power Stone. Physical strength comes from mental clarity.",
		Type:            "unlock-quest",
		QuestType:       "unlock",
		Duration:        1,
		Difficulty:      DifficultyEasy,
		Stones:          []StoneID{StonePower},
		StoneImpact:     []StoneImpact{{StoneID: StonePower, Change: 20}},
		Rewards:         Rewards{XP: 300, Energy: 30},
		Participants:    23,
		UnlockCondition: stoneQuestsCompleted(StoneMind, 3),
	},
	{
		ID:              "fitness-challenge",
		Title:           "🏃 Daily Movement Quest",
		Description:     "Log one physical activity to strengthen your Power Stone",
		Type:            "physical",
		Duration:        1,
		Difficulty:      DifficultyEasy,
		Stones:          []StoneID{StonePower},
		StoneImpact:     []StoneImpact{{StoneID: StonePower, Change: 15}},
		Rewards:         Rewards{XP: 150, Energy: 15},
		Participants:    89,
		UnlockCondition: stoneUnlocked(StonePower),
	},
	{
		ID:              "social-wellness",
		Title:           "❤️ Connect with Others",
		Description:     "Engage in meaningful social interaction to unlock the Soul Stone",
		Type:            "social",
		Duration:        1,
		Difficulty:      DifficultyEasy,
		Stones:          []StoneID{StoneSoul},
		StoneImpact:     []StoneImpact{{StoneID: StoneSoul, Change: 20}},
		Rewards:         Rewards{XP: 200, Energy: 20},
		Participants:    67,
		UnlockCondition: totalQuestsCompleted(5),
	},
	{
		ID:          "advanced-challenge",
		Title:       "⭐ Master of Balance",
		Description: "Maintain all unlocked gems glowing for 7 consecutive days",
		Type:        "mastery",
		Duration:    7,
		Difficulty:  DifficultyMaster,
		Stones:      []StoneID{StoneTime, StoneSpace, StoneReality, StoneSoul, StonePower, StoneMind},
		StoneImpact: []StoneImpact{
			{StoneID: StoneTime, Change: 50},
			{StoneID: StoneSpace, Change: 30},
			{StoneID: StoneReality, Change: 25},
		},
		Rewards:         Rewards{XP: 2000, Energy: 100},
		Participants:    12,
		UnlockCondition: allStonesUnlocked(),
	},
}

func challengeTemplateByID(id string) (Challenge, bool) {
	for _, ch := range challengeCatalog {
		if ch.ID == id {
			return ch, true
		}
	}
	return Challenge{}, false
}

func challengeIDStrings() []string {
	out := make([]string, len(challengeCatalog))
	for i, ch := range challengeCatalog {
		out[i] = ch.ID
	}
	return out
}

func newChallengeTemplate() []*Challenge {
	out := make([]*Challenge, len(challengeCatalog))
	for i, tmpl := range challengeCatalog {
		ch := cloneChallenge(tmpl)
		ch.Progress = 0
		if ch.UnlockCondition.Kind == RuleAlways {
			ch.Status = ChallengeAvailable
		} else {
			ch.Status = ChallengeLocked
		}
		out[i] = &ch
	}
	return out
}

// difficultyMultiplier scales stone impacts on each completed activity.
func difficultyMultiplier(d Difficulty) float64 {
	switch d {
	case DifficultyHard:
		return 1.5
	case DifficultyEasy:
		return 0.8
	default:
		return 1
	}
}

func cloneChallenge(ch Challenge) Challenge {
	ch.Stones = append([]StoneID(nil), ch.Stones...)
	ch.StoneImpact = append([]StoneImpact(nil), ch.StoneImpact...)
	return ch
}

func cloneStone(st Stone) Stone {
	st.Abilities = append([]string(nil), st.Abilities...)
	st.ConnectedTo = append([]StoneID(nil), st.ConnectedTo...)
	return st
}
