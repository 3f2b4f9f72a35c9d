package gauntlet

import (
	"context"
	"errors"
	"testing"
)

func TestLoginDerivesProfileFromEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Profile(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession before login, got %v", err)
	}

	user, err := f.svc.Login(ctx, "  jane.doe_smith@example.com ")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Name != "Jane Doe Smith" || user.Email != "jane.doe_smith@example.com" {
		t.Fatalf("unexpected identity: %+v", user)
	}
	if user.ID != "user-1" || user.Level != 1 || user.TotalXP != 0 || user.Streak != 0 {
		t.Fatalf("unexpected starting profile: %+v", user)
	}
	if !user.JoinDate.Equal(startOfDay(f.clock.Now())) {
		t.Fatalf("unexpected join date: %v", user.JoinDate)
	}

	profile, err := f.svc.Profile(ctx)
	if err != nil || profile.ID != user.ID {
		t.Fatalf("Profile: %+v, %v", profile, err)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != "session-started" {
		t.Fatalf("expected session-started event, got %v", got)
	}
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	f := newFixture(t)
	for _, email := range []string{"", "not-an-email", "@example.com"} {
		if _, err := f.svc.Login(context.Background(), email); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("email %q: expected ErrInvalidInput, got %v", email, err)
		}
	}
}

func TestNotificationsAreMonotonicAndNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The clock does not move, so ids must be bumped to stay unique.
	first := f.svc.Notify(ctx, "info", "one", "first")
	second := f.svc.Notify(ctx, "info", "two", "second")
	third := f.svc.Notify(ctx, "info", "three", "third")
	if !(first.ID < second.ID && second.ID < third.ID) {
		t.Fatalf("ids not strictly increasing: %d %d %d", first.ID, second.ID, third.ID)
	}
	if first.ID != f.clock.Now().UnixMilli() {
		t.Fatalf("expected first id to be the clock millis")
	}

	list, err := f.svc.Notifications(ctx, 2)
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if len(list) != 2 || list[0].ID != third.ID || list[1].ID != second.ID {
		t.Fatalf("expected newest first with limit, got %+v", list)
	}

	read, err := f.svc.MarkNotificationRead(ctx, second.ID)
	if err != nil || !read.Read {
		t.Fatalf("MarkNotificationRead: %+v, %v", read, err)
	}
	if _, err := f.svc.MarkNotificationRead(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
