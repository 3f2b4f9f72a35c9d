package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusnest/gauntlet-service/internal/gauntlet"
	"github.com/focusnest/gauntlet-service/internal/store"
	"github.com/focusnest/gauntlet-service/shared/logging"
)

type cliOptions struct {
	dbPath   string
	logLevel string
}

// session is one opened service plus the store behind it.
type session struct {
	svc   gauntlet.Service
	blobs store.BlobStore
}

func (o *cliOptions) open(ctx context.Context, stderr io.Writer) (*session, error) {
	blobs, err := store.NewSQLiteStore(ctx, o.dbPath)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLoggerTo(stderr, "gauntlet-cli", o.logLevel)
	svc, err := gauntlet.NewService(ctx, blobs, gauntlet.NewSystemClock(), gauntlet.NewUUIDGenerator(),
		gauntlet.WithLogger(logger),
		gauntlet.WithRandom(gauntlet.NewRandom(time.Now().UnixNano())),
	)
	if err != nil {
		_ = blobs.Close()
		return nil, err
	}
	return &session{svc: svc, blobs: blobs}, nil
}

func (s *session) Close() error {
	return s.blobs.Close()
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:          "gauntlet",
		Short:        "Inspect and drive a local Wellness Gauntlet save",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", envOr("SQLITE_PATH", "./gauntlet.db"), "path to the SQLite save file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newStonesCommand(opts),
		newProgressCommand(opts),
		newChallengesCommand(opts),
		newJoinCommand(opts),
		newCompleteCommand(opts),
		newLoginCommand(opts),
		newProfileCommand(opts),
		newResetCommand(opts),
		newAnalyticsCommand(opts),
		newSnapshotCommand(opts),
		newKeysCommand(opts),
		newWipeCommand(opts),
	)
	return root
}

// withSession opens the save, runs fn and prints whatever it returns as JSON.
func withSession(opts *cliOptions, fn func(ctx context.Context, s *session, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := opts.open(ctx, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer s.Close()

		out, err := fn(ctx, s, args)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}

func newStonesCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stones [stone-id]",
		Short: "List stones, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) (any, error) {
			if len(args) == 1 {
				return s.svc.Stone(ctx, gauntlet.StoneID(args[0]))
			}
			return s.svc.Stones(ctx)
		}),
	}
}

func newProgressCommand(opts *cliOptions) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "progress <stone-id> <change>",
		Short: "Apply a progress change to a stone",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) (any, error) {
			change, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("change must be an integer: %w", err)
			}
			return s.svc.UpdateStoneProgress(ctx, gauntlet.StoneID(args[0]), change, source)
		}),
	}
	cmd.Flags().StringVar(&source, "source", gauntlet.SourceManual, "label recorded as the progress source")
	return cmd
}

func newChallengesCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "challenges [challenge-id]",
		Short: "List challenges, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) (any, error) {
			if len(args) == 1 {
				return s.svc.Challenge(ctx, args[0])
			}
			return s.svc.Challenges(ctx)
		}),
	}
}

func newJoinCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "join <challenge-id>",
		Short: "Join an available challenge",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) (any, error) {
			return s.svc.JoinChallenge(ctx, args[0])
		}),
	}
}

func newCompleteCommand(opts *cliOptions) *cobra.Command {
	var (
		note    string
		minutes int
	)
	cmd := &cobra.Command{
		Use:   "complete <challenge-id>",
		Short: "Log one activity against a challenge",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) (any, error) {
			return s.svc.CompleteActivity(ctx, args[0], gauntlet.ActivityData{Note: note, Minutes: minutes})
		}),
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "free-form note attached to the activity")
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "minutes spent on the activity")
	return cmd
}

func newLoginCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and start earning XP",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) (any, error) {
			return s.svc.Login(ctx, args[0])
		}),
	}
}

func newProfileCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(ctx context.Context, s *session, _ []string) (any, error) {
			return s.svc.Profile(ctx)
		}),
	}
}

func newResetCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the starting template and sign out",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(ctx context.Context, s *session, _ []string) (any, error) {
			return nil, s.svc.Reset(ctx)
		}),
	}
}

func newAnalyticsCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Summarize stone and challenge progress",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(ctx context.Context, s *session, _ []string) (any, error) {
			return s.svc.Analytics(ctx)
		}),
	}
}

func newSnapshotCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print the persisted snapshot",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(ctx context.Context, s *session, _ []string) (any, error) {
			return s.svc.Snapshot(ctx), nil
		}),
	}
}

func newKeysCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List keys held in the save file",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(ctx context.Context, s *session, _ []string) (any, error) {
			return s.blobs.Keys(ctx)
		}),
	}
}

func newWipeCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wipe",
		Short: "Delete the saved snapshot; the next command starts a new player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			blobs, err := store.NewSQLiteStore(ctx, opts.dbPath)
			if err != nil {
				return err
			}
			defer blobs.Close()

			if err := blobs.Delete(ctx, gauntlet.SnapshotKey); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
