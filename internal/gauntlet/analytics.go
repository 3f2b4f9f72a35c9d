package gauntlet

import (
	"context"
	"math"
)

// Analytics is an aggregate view over stones and challenges.
type Analytics struct {
	OverallProgress     int             `json:"overallProgress"`
	StrongestStone      Stone           `json:"strongestStone"`
	WeakestStone        Stone           `json:"weakestStone"`
	TotalChallenges     int             `json:"totalChallenges"`
	ActiveChallenges    int             `json:"activeChallenges"`
	CompletedChallenges int             `json:"completedChallenges"`
	StoneConnections    int             `json:"stoneConnections"`
	WeeklyGrowth        map[StoneID]int `json:"weeklyGrowth"`
}

// growthRange is the [min, min+span) band weekly growth is drawn from.
type growthRange struct {
	min  int
	span int
}

var weeklyGrowthRanges = map[StoneID]growthRange{
	StonePower:   {min: 5, span: 20},
	StoneSpace:   {min: 3, span: 15},
	StoneReality: {min: 8, span: 25},
	StoneSoul:    {min: 2, span: 10},
	StoneTime:    {min: 10, span: 30},
	StoneMind:    {min: 6, span: 18},
}

func (s *service) Analytics(ctx context.Context) (Analytics, error) {
	var out Analytics
	err := s.read(ctx, func() {
		out = computeAnalytics(s.stones, s.challenges, s.random)
	})
	return out, err
}

// computeAnalytics ties go to the later stone in registry order.
func computeAnalytics(stones map[StoneID]*Stone, challenges []*Challenge, rnd Random) Analytics {
	var (
		total       int
		connections int
		strongest   *Stone
		weakest     *Stone
	)
	for _, id := range stoneOrder {
		st, ok := stones[id]
		if !ok {
			continue
		}
		total += st.Progress
		connections += len(st.ConnectedTo)
		if strongest == nil || st.Progress >= strongest.Progress {
			strongest = st
		}
		if weakest == nil || st.Progress <= weakest.Progress {
			weakest = st
		}
	}

	a := Analytics{
		TotalChallenges:  len(challenges),
		StoneConnections: connections,
		WeeklyGrowth:     make(map[StoneID]int, len(weeklyGrowthRanges)),
	}
	if len(stones) > 0 {
		a.OverallProgress = int(math.Round(float64(total) / float64(len(stones))))
		a.StrongestStone = cloneStone(*strongest)
		a.WeakestStone = cloneStone(*weakest)
	}
	for _, ch := range challenges {
		switch ch.Status {
		case ChallengeActive:
			a.ActiveChallenges++
		case ChallengeCompleted:
			a.CompletedChallenges++
		}
	}
	for _, id := range stoneOrder {
		r := weeklyGrowthRanges[id]
		a.WeeklyGrowth[id] = r.min + rnd.Intn(r.span)
	}
	return a
}
