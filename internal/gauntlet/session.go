package gauntlet

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/focusnest/gauntlet-service/shared/events"
	"github.com/focusnest/gauntlet-service/shared/pubsub"
)

const defaultAvatar = "https://cdn.jsdelivr.net/gh/marvel-unlimited/assets/characters/captain-america.jpg"

// Login starts a session for any well-formed email address. Stones and
// challenges carry over; the profile starts fresh at level 1.
func (s *service) Login(ctx context.Context, email string) (User, error) {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return User{}, fmt.Errorf("%w: email must be a valid address", ErrInvalidInput)
	}

	var user User
	err := s.mutate(ctx, func() error {
		now := s.clock.Now().UTC()
		user = User{
			ID:       s.ids.NewID(),
			Name:     displayName(email),
			Email:    email,
			Avatar:   defaultAvatar,
			Level:    1,
			JoinDate: startOfDay(now),
		}
		u := user
		s.user = &u
		s.emit(pubsub.TopicSession, events.TypeSessionStarted, events.SessionStarted{
			UserID: user.ID,
			Email:  user.Email,
			At:     now,
		})
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *service) Profile(ctx context.Context) (User, error) {
	var (
		out User
		ok  bool
	)
	if err := s.read(ctx, func() {
		if s.user != nil {
			out, ok = *s.user, true
		}
	}); err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrNoSession
	}
	return out, nil
}

// displayName turns "jane.doe_smith@x.io" into "Jane Doe Smith".
func displayName(email string) string {
	local := email
	if at := strings.LastIndex(email, "@"); at >= 0 {
		local = email[:at]
	}
	local = strings.NewReplacer(".", " ", "_", " ").Replace(local)
	return cases.Title(language.English).String(strings.Join(strings.Fields(local), " "))
}
