package insights

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// Random is the noise source for synthetic history.
type Random interface {
	Float64() float64
}

// HistoryPoint is one day of logged wellness balance.
type HistoryPoint struct {
	LogDate         string `json:"log_date"`
	WellnessBalance int    `json:"wellness_balance"`
}

// HistoryLength maps a range query to a number of days: 7 for "week", 30
// for anything else.
func HistoryLength(rangeName string) int {
	if rangeName == "week" {
		return 7
	}
	return 30
}

// History synthesizes a wellness curve ending today: a sine wave around 65
// with up to five points of noise either way, clamped to [0,100].
func History(rangeName string, now time.Time, rnd Random) []HistoryPoint {
	n := HistoryLength(rangeName)
	out := make([]HistoryPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		balance := 65 + math.Sin(float64(i)*0.5)*15 + (rnd.Float64()-0.5)*10
		out = append(out, HistoryPoint{
			LogDate:         now.AddDate(0, 0, -i).UTC().Format(dateLayout),
			WellnessBalance: int(math.Round(math.Max(0, math.Min(100, balance)))),
		})
	}
	return out
}

// LocalForecast fits a least-squares line through history and extends it
// by days points, one per day after the last logged date.
func LocalForecast(history []HistoryPoint, days int) []ForecastPoint {
	if len(history) == 0 || days <= 0 {
		return nil
	}

	n := float64(len(history))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range history {
		x, y := float64(i), float64(p.WellnessBalance)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	slope := 0.0
	if denom := n*sumXX - sumX*sumX; denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n

	last, err := time.Parse(dateLayout, history[len(history)-1].LogDate)
	if err != nil {
		last = time.Now().UTC()
	}

	out := make([]ForecastPoint, days)
	for k := 0; k < days; k++ {
		x := n + float64(k)
		y := math.Max(0, math.Min(100, intercept+slope*x))
		out[k] = ForecastPoint{
			Date:             last.AddDate(0, 0, k+1).Format(dateLayout),
			PredictedBalance: math.Round(y),
		}
	}
	return out
}

var questCatalog = []Quest{
	{ID: 1, Name: "5-Minute Meditation", Description: "Clear your mind and find your center.", Category: "mind"},
	{ID: 2, Name: "Morning Stretch", Description: "Energize your body for the day ahead.", Category: "body"},
	{ID: 3, Name: "Gratitude Journaling", Description: "Write down three things you are thankful for.", Category: "soul"},
	{ID: 4, Name: "Deep Breathing Exercise", Description: "Practice box breathing for 3 minutes.", Category: "mind"},
	{ID: 5, Name: "Go for a 20-minute walk", Description: "Get some fresh air and move your body.", Category: "body"},
	{ID: 6, Name: "Reflect on Your Day", Description: "Think about one positive experience from today.", Category: "soul"},
}

// GemCategory maps a stone id onto the mind/body/soul categories the
// recommendation catalog is organized by.
func GemCategory(stoneID string) string {
	switch stoneID {
	case "power":
		return "body"
	case "soul", "reality":
		return "soul"
	default:
		return "mind"
	}
}

// LocalRecommendations returns at most three catalog quests for category.
func LocalRecommendations(category string) []Quest {
	out := make([]Quest, 0, 3)
	for _, q := range questCatalog {
		if q.Category != category {
			continue
		}
		out = append(out, q)
		if len(out) == 3 {
			break
		}
	}
	return out
}
