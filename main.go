package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/engcoach/internal/ai"
	"github.com/example/engcoach/internal/config"
	"github.com/example/engcoach/internal/database"
	"github.com/example/engcoach/internal/learning"
	"github.com/example/engcoach/internal/logger"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// app holds what every command shares once the root pre-run has finished
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *sqlx.DB
	svc *learning.Service
}

var (
	current app
	seed    int64
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "engcoach",
	Short: "Adaptive vocabulary and writing practice for Eiken learners",
	Long: `engcoach composes personalised vocabulary quizzes, schedules flashcard
reviews, tracks daily streaks and awards achievement badges.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Seed for quiz shuffling (0 picks a random seed)")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Error("failed to connect to database", "driver", cfg.DBDriver, "error", err)
		return err
	}

	opts := learning.Options{
		QuizLength: cfg.QuizLength,
		PoolSize:   cfg.PoolSize,
		Location:   loc,
		Random:     newRandom(seed),
		Logger:     log,
	}
	if cfg.PoolSize == 0 {
		opts.PoolSize = -1
	}
	if cfg.GradingEnabled() {
		grader, err := ai.New(ai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.GradeTimeout,
		}, log)
		if err != nil {
			db.Close()
			return err
		}
		opts.Grader = grader
	}

	current = app{cfg: cfg, log: log, db: db, svc: learning.New(db, opts)}
	return nil
}

func teardown() {
	if current.db != nil {
		current.db.Close()
	}
	if current.log != nil {
		current.log.Sync()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		teardown()
		os.Exit(1)
	}
}
