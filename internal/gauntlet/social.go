package gauntlet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/focusnest/gauntlet-service/shared/events"
	"github.com/focusnest/gauntlet-service/shared/logging"
	"github.com/focusnest/gauntlet-service/shared/pubsub"
)

// Friend statuses cycled by the simulator.
const (
	FriendOnline      = "online"
	FriendInChallenge = "in-challenge"
	FriendOffline     = "offline"
)

var friendStatuses = []string{FriendOnline, FriendInChallenge, FriendOffline}

var friendActivities = []string{
	"completed a challenge",
	"reached a new level",
	"unlocked a new stone",
	"joined your challenge",
}

type Friend struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Avatar            string  `json:"avatar"`
	Level             int     `json:"level"`
	DominantStone     StoneID `json:"dominantStone"`
	Status            string  `json:"status"`
	RecentAchievement string  `json:"recentAchievement"`
	MutualChallenges  int     `json:"mutualChallenges"`
}

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	Name          string  `json:"name"`
	TotalXP       int     `json:"totalXP"`
	DominantStone StoneID `json:"dominantStone"`
}

type Group struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Members         int    `json:"members"`
	ActiveChallenge string `json:"activeChallenge"`
	Description     string `json:"description"`
}

// SocialNetwork is the static social graph shown next to the gauntlet.
type SocialNetwork struct {
	Friends     []Friend           `json:"friends"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Groups      []Group            `json:"groups"`
}

func newSocialNetwork() SocialNetwork {
	return SocialNetwork{
		Friends: []Friend{
			{ID: "user1", Name: "Tony Stark", Avatar: "https://cdn.jsdelivr.net/gh/marvel-unlimited/assets/characters/iron-man.jpg", Level: 42, DominantStone: StoneMind, Status: FriendOnline, RecentAchievement: "Completed Tech Innovation Challenge", MutualChallenges: 3},
			{ID: "user2", Name: "Natasha Romanoff", Avatar: "https://cdn.jsdelivr.net/gh/marvel-unlimited/assets/characters/black-widow.jpg", Level: 38, DominantStone: StonePower, Status: FriendInChallenge, RecentAchievement: "Fitness Master Achievement", MutualChallenges: 2},
			{ID: "user3", Name: "Stephen Strange", Avatar: "https://cdn.jsdelivr.net/gh/marvel-unlimited/assets/characters/doctor-strange.jpg", Level: 45, DominantStone: StoneTime, Status: FriendOffline, RecentAchievement: "Time Management Guru", MutualChallenges: 4},
		},
		Leaderboard: []LeaderboardEntry{
			{Rank: 1, Name: "Stephen Strange", TotalXP: 15420, DominantStone: StoneTime},
			{Rank: 2, Name: "Tony Stark", TotalXP: 14890, DominantStone: StoneMind},
			{Rank: 3, Name: "You", TotalXP: 12350, DominantStone: StoneReality},
			{Rank: 4, Name: "Natasha Romanoff", TotalXP: 11200, DominantStone: StonePower},
			{Rank: 5, Name: "Wanda Maximoff", TotalXP: 10800, DominantStone: StoneReality},
		},
		Groups: []Group{
			{ID: "avengers-fitness", Name: "Avengers Fitness Club", Members: 23, ActiveChallenge: "Ultimate Fitness Quest", Description: "Elite fitness community"},
			{ID: "mind-masters", Name: "Mind Stone Masters", Members: 156, ActiveChallenge: "Mindfulness Journey", Description: "Mental wellness and learning"},
		},
	}
}

func (n SocialNetwork) clone() SocialNetwork {
	return SocialNetwork{
		Friends:     append([]Friend(nil), n.Friends...),
		Leaderboard: append([]LeaderboardEntry(nil), n.Leaderboard...),
		Groups:      append([]Group(nil), n.Groups...),
	}
}

func (s *service) Social(ctx context.Context) (SocialNetwork, error) {
	var out SocialNetwork
	err := s.read(ctx, func() {
		out = s.social.clone()
	})
	return out, err
}

// SetFriendStatus updates a friend's presence and publishes the change.
func (s *service) SetFriendStatus(ctx context.Context, friendID, status string) (Friend, error) {
	if err := validate.Var(status, "oneof=online in-challenge offline"); err != nil {
		return Friend{}, fmt.Errorf("%w: unknown friend status %q", ErrInvalidInput, status)
	}

	s.mu.Lock()
	s.outbox = nil
	var (
		friend Friend
		found  bool
	)
	for i := range s.social.Friends {
		if s.social.Friends[i].ID == friendID {
			s.social.Friends[i].Status = status
			friend, found = s.social.Friends[i], true
			break
		}
	}
	if found {
		s.emit(pubsub.TopicSocial, events.TypeFriendStatus, events.FriendStatusChanged{
			FriendID: friend.ID,
			Name:     friend.Name,
			Status:   friend.Status,
		})
	}
	outbox := s.outbox
	s.outbox = nil
	known := make([]string, len(s.social.Friends))
	for i, f := range s.social.Friends {
		known[i] = f.ID
	}
	s.mu.Unlock()

	if !found {
		return Friend{}, newNotFound("friend", friendID, known)
	}
	s.publish(ctx, outbox)
	return friend, nil
}

// SocialSimulator periodically flips a random friend's status and, one
// tick in ten on average, posts a friend-activity notification.
type SocialSimulator struct {
	svc      Service
	random   Random
	interval time.Duration
	logger   *slog.Logger
}

// NewSocialSimulator returns a simulator; a non-positive interval means 30s.
func NewSocialSimulator(svc Service, random Random, interval time.Duration, logger *slog.Logger) *SocialSimulator {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &SocialSimulator{svc: svc, random: random, interval: interval, logger: logger}
}

// Run ticks until ctx is cancelled.
func (sim *SocialSimulator) Run(ctx context.Context) {
	ticker := time.NewTicker(sim.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sim.Tick(ctx); err != nil {
				sim.logger.Warn("social tick failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Tick performs one simulation step.
func (sim *SocialSimulator) Tick(ctx context.Context) error {
	network, err := sim.svc.Social(ctx)
	if err != nil {
		return err
	}
	if len(network.Friends) == 0 {
		return nil
	}

	friend := network.Friends[sim.random.Intn(len(network.Friends))]
	status := friendStatuses[sim.random.Intn(len(friendStatuses))]
	if _, err := sim.svc.SetFriendStatus(ctx, friend.ID, status); err != nil {
		return err
	}

	if sim.random.Float64() < 0.1 {
		actor := network.Friends[sim.random.Intn(len(network.Friends))]
		activity := friendActivities[sim.random.Intn(len(friendActivities))]
		sim.svc.Notify(ctx, NotifyFriendActivity, "Friend Update", fmt.Sprintf("%s %s!", actor.Name, activity))
	}
	return nil
}
