package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/focusnest/gauntlet-service/internal/gauntlet"
)

func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLIProgressPersistsAcrossInvocations(t *testing.T) {
	db := filepath.Join(t.TempDir(), "save.db")

	out, err := run(t, db, "progress", "mind", "25")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	var update gauntlet.StoneUpdate
	if err := json.Unmarshal([]byte(out), &update); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if update.Stone.Progress != 40 || update.Stone.Level != 3 {
		t.Fatalf("unexpected stone after update %+v", update.Stone)
	}

	out, err = run(t, db, "stones", "mind")
	if err != nil {
		t.Fatalf("stones: %v", err)
	}
	var stone gauntlet.Stone
	if err := json.Unmarshal([]byte(out), &stone); err != nil {
		t.Fatalf("decode stone: %v", err)
	}
	if stone.Progress != 40 {
		t.Fatalf("expected persisted progress 40, got %d", stone.Progress)
	}

	out, err = run(t, db, "keys")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if !strings.Contains(out, gauntlet.SnapshotKey) {
		t.Fatalf("expected snapshot key in %s", out)
	}
}

func TestCLIJoinAndReset(t *testing.T) {
	db := filepath.Join(t.TempDir(), "save.db")

	if _, err := run(t, db, "join", "mind-gem-intro"); err != nil {
		t.Fatalf("join: %v", err)
	}
	_, err := run(t, db, "join", "mind-gem-intro")
	if !errors.Is(err, gauntlet.ErrChallengeActive) {
		t.Fatalf("expected ErrChallengeActive on second join, got %v", err)
	}

	if _, err := run(t, db, "reset"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	out, err := run(t, db, "challenges", "mind-gem-intro")
	if err != nil {
		t.Fatalf("challenges: %v", err)
	}
	var ch gauntlet.Challenge
	if err := json.Unmarshal([]byte(out), &ch); err != nil {
		t.Fatalf("decode challenge: %v", err)
	}
	if ch.Status != gauntlet.ChallengeAvailable || ch.Participants != 1 {
		t.Fatalf("expected template challenge after reset, got %+v", ch)
	}
}

func TestCLIWipeDropsSave(t *testing.T) {
	db := filepath.Join(t.TempDir(), "save.db")

	if _, err := run(t, db, "progress", "mind", "25"); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if _, err := run(t, db, "wipe"); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	if _, err := run(t, db, "wipe"); err != nil {
		t.Fatalf("second wipe must tolerate a missing save: %v", err)
	}

	out, err := run(t, db, "stones", "mind")
	if err != nil {
		t.Fatalf("stones: %v", err)
	}
	var stone gauntlet.Stone
	if err := json.Unmarshal([]byte(out), &stone); err != nil {
		t.Fatalf("decode stone: %v", err)
	}
	if stone.Progress != 15 {
		t.Fatalf("expected template progress after wipe, got %d", stone.Progress)
	}
}

func TestCLIRejectsBadArguments(t *testing.T) {
	db := filepath.Join(t.TempDir(), "save.db")

	if _, err := run(t, db, "progress", "mind", "lots"); err == nil {
		t.Fatal("expected error for non-integer change")
	}
	if _, err := run(t, db, "stones", "mnd"); !errors.Is(err, gauntlet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := run(t, db, "profile"); !errors.Is(err, gauntlet.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
