package gauntlet

import (
	"context"
	"time"
)

// StoneID identifies one of the six stones.
type StoneID string

const (
	StoneMind    StoneID = "mind"
	StonePower   StoneID = "power"
	StoneSpace   StoneID = "space"
	StoneReality StoneID = "reality"
	StoneSoul    StoneID = "soul"
	StoneTime    StoneID = "time"
)

// StoneStatus is derived from unlock state and progress.
type StoneStatus string

const (
	StatusLocked  StoneStatus = "locked"
	StatusDim     StoneStatus = "dim"
	StatusGlowing StoneStatus = "glowing"
)

// Stone is a progression entity representing one wellness dimension.
type Stone struct {
	ID                StoneID         `json:"id" validate:"required"`
	Name              string          `json:"name" validate:"required"`
	ColorToken        string          `json:"color"`
	Icon              string          `json:"icon"`
	Description       string          `json:"description,omitempty"`
	Abilities         []string        `json:"abilities,omitempty"`
	Progress          int             `json:"progress" validate:"gte=0,lte=100"`
	Level             int             `json:"level" validate:"gte=0"`
	Energy            int             `json:"energy" validate:"gte=0,lte=100"`
	Unlocked          bool            `json:"unlocked"`
	ConnectedTo       []StoneID       `json:"connectedTo"`
	Multiplier        float64         `json:"multiplier" validate:"gte=0"`
	Status            StoneStatus     `json:"status" validate:"oneof=locked dim glowing"`
	UnlockRule        UnlockCondition `json:"unlockRule"`
	UnlockRequirement string          `json:"unlockRequirement,omitempty"`
	RecentActivity    string          `json:"recentActivity,omitempty"`
}

// Difficulty scales stone impacts on activity completion.
type Difficulty string

const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyMaster   Difficulty = "master"
)

// ChallengeStatus only ever moves forward: locked, available, active, completed.
type ChallengeStatus string

const (
	ChallengeLocked    ChallengeStatus = "locked"
	ChallengeAvailable ChallengeStatus = "available"
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
)

func (s ChallengeStatus) rank() int {
	switch s {
	case ChallengeAvailable:
		return 1
	case ChallengeActive:
		return 2
	case ChallengeCompleted:
		return 3
	default:
		return 0
	}
}

// StoneImpact is the progress change a challenge applies to one stone.
type StoneImpact struct {
	StoneID StoneID `json:"stoneId" validate:"required"`
	Change  int     `json:"change"`
}

// Rewards granted by a challenge.
type Rewards struct {
	XP     int `json:"xp" validate:"gte=0"`
	Energy int `json:"energy" validate:"gte=0"`
}

// Challenge is a time-boxed activity tied to one or more stones.
type Challenge struct {
	ID              string          `json:"id" validate:"required"`
	Title           string          `json:"title" validate:"required"`
	Description     string          `json:"description"`
	Type            string          `json:"type"`
	QuestType       string          `json:"questType,omitempty"`
	Duration        int             `json:"duration" validate:"gt=0"`
	Progress        int             `json:"progress" validate:"gte=0,ltefield=Duration"`
	Difficulty      Difficulty      `json:"difficulty" validate:"oneof=beginner easy medium hard master"`
	Stones          []StoneID       `json:"stones"`
	StoneImpact     []StoneImpact   `json:"stoneImpact" validate:"dive"`
	Rewards         Rewards         `json:"rewards"`
	Participants    int             `json:"participants" validate:"gte=0"`
	Status          ChallengeStatus `json:"status" validate:"oneof=locked available active completed"`
	UnlockCondition UnlockCondition `json:"unlockCondition"`
}

// User is the profile of the signed-in player.
type User struct {
	ID                  string    `json:"id" validate:"required"`
	Name                string    `json:"name"`
	Email               string    `json:"email" validate:"required,email"`
	Avatar              string    `json:"avatar,omitempty"`
	Level               int       `json:"level" validate:"gte=1"`
	TotalXP             int       `json:"totalXP" validate:"gte=0"`
	Streak              int       `json:"streak" validate:"gte=0"`
	CompletedChallenges int       `json:"completedChallenges" validate:"gte=0"`
	ActiveChallenges    int       `json:"activeChallenges" validate:"gte=0"`
	JoinDate            time.Time `json:"joinDate"`
	LastActiveDate      time.Time `json:"lastActiveDate,omitempty"`
}

// Notification is an in-app message. IDs are derived from the clock and
// strictly increase.
type Notification struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Notification kinds.
const (
	NotifyChallengeJoined    = "challenge-joined"
	NotifyChallengeCompleted = "challenge-completed"
	NotifyFriendActivity     = "friend-activity"
	NotifyStoneUnlocked      = "stone-unlocked"
)

// Update sources recorded on stone updates.
const (
	SourceManual           = "manual"
	SourceChallengeJoin    = "challenge-join"
	SourceActivityComplete = "activity-complete"
)

// RippleEffect reports a secondary change caused by a stone update. Type is
// "ripple" for propagated progress and "unlock" for stones unlocked as a result.
type RippleEffect struct {
	StoneID StoneID `json:"stoneId"`
	Change  int     `json:"change,omitempty"`
	Type    string  `json:"type"`
}

// StoneUpdate is the outcome of one progress update. Skipped updates
// target a locked stone and mutate nothing.
type StoneUpdate struct {
	Success       bool           `json:"success"`
	StoneID       StoneID        `json:"stoneId"`
	Stone         Stone          `json:"stone"`
	RippleEffects []RippleEffect `json:"rippleEffects"`
	LeveledUp     bool           `json:"leveledUp"`
	Source        string         `json:"source"`
	Skipped       bool           `json:"skipped,omitempty"`
	Reason        string         `json:"reason,omitempty"`
}

// JoinResult is returned by JoinChallenge.
type JoinResult struct {
	Success      bool          `json:"success"`
	Challenge    Challenge     `json:"challenge"`
	StoneUpdates []StoneUpdate `json:"stoneUpdates"`
	Unlocked     []Unlock      `json:"unlocked,omitempty"`
	Message      string        `json:"message"`
}

// ActivityData describes a logged activity. It is recorded on events but
// does not influence scoring.
type ActivityData struct {
	Note     string         `json:"note,omitempty"`
	Minutes  int            `json:"minutes,omitempty" validate:"gte=0"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ActivityResult is returned by CompleteActivity. XPGained is the total
// credited by the call, partial and full awards included.
type ActivityResult struct {
	Success      bool          `json:"success"`
	Challenge    Challenge     `json:"challenge"`
	StoneUpdates []StoneUpdate `json:"stoneUpdates"`
	Unlocked     []Unlock      `json:"unlocked,omitempty"`
	IsCompleted  bool          `json:"isCompleted"`
	XPGained     int           `json:"xpGained"`
}

// Unlock names a stone or challenge that became available.
type Unlock struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Snapshot is the persisted form of the whole simulator state.
type Snapshot struct {
	Stones      map[StoneID]Stone `json:"stones"`
	Challenges  []Challenge       `json:"challenges"`
	CurrentUser *User             `json:"currentUser"`
	Timestamp   int64             `json:"timestamp"`
	IsNewUser   bool              `json:"isNewUser,omitempty"`
}

// Service orchestrates the gauntlet simulator for one session.
type Service interface {
	Stones(ctx context.Context) ([]Stone, error)
	Stone(ctx context.Context, id StoneID) (Stone, error)
	UpdateStoneProgress(ctx context.Context, id StoneID, delta int, source string) (StoneUpdate, error)

	Challenges(ctx context.Context) ([]Challenge, error)
	Challenge(ctx context.Context, id string) (Challenge, error)
	JoinChallenge(ctx context.Context, id string) (JoinResult, error)
	CompleteActivity(ctx context.Context, id string, activity ActivityData) (ActivityResult, error)

	Notify(ctx context.Context, kind, title, message string) Notification
	Notifications(ctx context.Context, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) (Notification, error)

	Login(ctx context.Context, email string) (User, error)
	Profile(ctx context.Context) (User, error)
	Reset(ctx context.Context) error
	Snapshot(ctx context.Context) Snapshot

	Analytics(ctx context.Context) (Analytics, error)
	Social(ctx context.Context) (SocialNetwork, error)
	SetFriendStatus(ctx context.Context, friendID, status string) (Friend, error)
}

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique identifiers for new users.
type IDGenerator interface {
	NewID() string
}

// Random is the subset of *rand.Rand the simulator draws from.
type Random interface {
	Intn(n int) int
	Float64() float64
}
