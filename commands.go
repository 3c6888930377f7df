package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/example/engcoach/internal/database"
	"github.com/example/engcoach/internal/excel"
	"github.com/example/engcoach/internal/learning"
	"github.com/example/engcoach/internal/priority"
	"github.com/example/engcoach/internal/quiz"
	"github.com/example/engcoach/internal/scheduler"
	"github.com/example/engcoach/pkg/models"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	learnerID string
	levelName string
	itemID    string
	limit     int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		// setup already applied the schema
		current.log.Info("schema ready", "driver", current.cfg.DBDriver)
		return nil
	},
}

var importSheet string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import vocabulary from a CSV or XLSX file",
	Long: `Import vocabulary from a CSV or XLSX file with a header row.

Required columns: word, meaning_ja. Optional: level, part_of_speech, category,
pronunciation, example_en, example_ja. Existing (word, level) entries are
updated in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		importer := excel.NewImporter(vocabularyStore(), current.log)
		result, err := importer.ImportFile(cmd.Context(), excel.ImportConfig{
			FilePath:     args[0],
			SheetName:    importSheet,
			DefaultLevel: models.ParseLevel(levelName),
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Compose a quiz session with multiple-choice questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := current.svc.ComposeSession(cmd.Context(), models.ParseLevel(levelName), learnerID)
		if err != nil {
			return err
		}
		type question struct {
			Word     string        `json:"word"`
			ItemID   string        `json:"vocabulary_id"`
			Priority bool          `json:"priority"`
			Options  []quiz.Option `json:"options"`
		}
		out := make([]question, 0, session.QuizLength)
		for _, q := range session.Questions() {
			out = append(out, question{
				Word:     q.Item.Word,
				ItemID:   q.Item.ID,
				Priority: session.PriorityIDs[q.Item.ID],
				Options:  q.Options,
			})
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var answerCorrect bool

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Record one answered quiz question",
	RunE: func(cmd *cobra.Command, args []string) error {
		return current.svc.RecordAnswer(cmd.Context(), learnerID, itemID, answerCorrect)
	},
}

var summary learning.SessionSummary

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Finish a quiz session and update streak and badges",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := current.svc.CompleteSession(cmd.Context(), learnerID, summary)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var readingCmd = &cobra.Command{
	Use:   "reading",
	Short: "Credit one reading-aloud exercise",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := current.svc.LogReadingAloud(cmd.Context(), learnerID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Re-evaluate badges from current statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		earned, err := current.svc.Checkpoint(cmd.Context(), learnerID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string][]string{"new_badges": earned})
	},
}

var reviewRating int

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Rate a flashcard from 0 (forgot) to 5 (perfect)",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := current.svc.Review(cmd.Context(), learnerID, itemID, reviewRating)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), state)
	},
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List flashcards due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, err := current.svc.DueCards(cmd.Context(), learnerID, limit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cards)
	},
}

var (
	writing     learning.WritingInput
	writingFile string
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a writing submission read from --file or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if writingFile != "" && writingFile != "-" {
			f, err := os.Open(writingFile)
			if err != nil {
				return errors.Wrap(err, "failed to open submission")
			}
			defer f.Close()
			r = f
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return errors.Wrap(err, "failed to read submission")
		}

		in := writing
		in.Level = models.ParseLevel(levelName)
		in.Content = strings.TrimSpace(string(content))
		if in.Content == "" {
			return errors.New("submission is empty")
		}
		out, err := current.svc.SubmitWriting(cmd.Context(), learnerID, in)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var badgeNotice bool

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "List earned badges, or pop the next unseen badge with --notice",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !badgeNotice {
			list, err := current.svc.Badges(ctx, learnerID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		}

		b, err := current.svc.NextBadgeNotice(ctx, learnerID)
		if err != nil {
			return err
		}
		if b == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "null")
			return nil
		}
		if err := current.svc.MarkBadgeShown(ctx, learnerID, b.BadgeKey); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), b)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics, streak and proficiency for a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		var report struct {
			Stats        models.BadgeStats          `json:"stats"`
			Streak       models.StreakRecord        `json:"streak"`
			TodaySeconds int                        `json:"today_seconds"`
			Proficiency  priority.ProficiencyReport `json:"proficiency"`
			Reviews      learning.ReviewSummary     `json:"reviews"`
		}
		level := models.ParseLevel(levelName)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() (err error) {
			report.Stats, err = current.svc.Stats(ctx, learnerID)
			return err
		})
		g.Go(func() (err error) {
			report.Streak, err = current.svc.Streak(ctx, learnerID)
			return err
		})
		g.Go(func() (err error) {
			report.TodaySeconds, err = current.svc.TodaySeconds(ctx, learnerID)
			return err
		})
		g.Go(func() (err error) {
			report.Proficiency, err = current.svc.Proficiency(ctx, learnerID, level)
			return err
		})
		g.Go(func() (err error) {
			report.Reviews, err = current.svc.ReviewSummary(ctx, learnerID)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var wrongCmd = &cobra.Command{
	Use:   "wrong",
	Short: "List the learner's most missed words",
	RunE: func(cmd *cobra.Command, args []string) error {
		words, err := current.svc.WrongWords(cmd.Context(), learnerID)
		if err != nil {
			return err
		}
		if limit > 0 && len(words) > limit {
			words = words[:limit]
		}
		return printJSON(cmd.OutOrStdout(), words)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the latest answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := current.svc.History(cmd.Context(), learnerID, limit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), entries)
	},
}

var writingsCmd = &cobra.Command{
	Use:   "writings",
	Short: "Show the latest graded writing submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := current.svc.Writings(cmd.Context(), learnerID, limit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), list)
	},
}

var workerOnce bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the daily badge reconciliation job until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loc, err := current.cfg.Location()
		if err != nil {
			return err
		}
		s := scheduler.New(current.svc, scheduler.Config{
			Hour:         current.cfg.ReconcileHour,
			LookbackDays: current.cfg.ReconcileLookbackDays,
			Location:     loc,
		}, current.log)

		if workerOnce {
			report, err := s.RunOnce(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		}

		if err := s.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		current.log.Info("stopping scheduler")
		s.Stop()
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{sessionCmd, answerCmd, completeCmd, readingCmd, checkpointCmd,
		reviewCmd, dueCmd, gradeCmd, badgesCmd, statsCmd, wrongCmd, historyCmd, writingsCmd} {
		c.Flags().StringVarP(&learnerID, "learner", "u", "", "Learner ID")
	}
	for _, c := range []*cobra.Command{answerCmd, completeCmd, readingCmd, checkpointCmd,
		reviewCmd, dueCmd, gradeCmd, badgesCmd, statsCmd, wrongCmd, historyCmd, writingsCmd} {
		_ = c.MarkFlagRequired("learner")
	}
	for _, c := range []*cobra.Command{sessionCmd, importCmd, gradeCmd, statsCmd} {
		c.Flags().StringVarP(&levelName, "level", "l", string(models.Level5), "Eiken level, e.g. 準2級 or pre2")
	}
	for _, c := range []*cobra.Command{answerCmd, reviewCmd} {
		c.Flags().StringVar(&itemID, "item", "", "Vocabulary item ID")
		_ = c.MarkFlagRequired("item")
	}
	for _, c := range []*cobra.Command{dueCmd, wrongCmd, historyCmd, writingsCmd} {
		c.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	}

	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	answerCmd.Flags().BoolVar(&answerCorrect, "correct", false, "The answer was correct")
	completeCmd.Flags().IntVar(&summary.Seconds, "seconds", 0, "Time spent in seconds")
	completeCmd.Flags().IntVar(&summary.Questions, "questions", 0, "Number of questions answered")
	completeCmd.Flags().IntVar(&summary.Correct, "correct", 0, "Number of correct answers")
	reviewCmd.Flags().IntVarP(&reviewRating, "rating", "r", 4, "Recall quality 0..5")
	gradeCmd.Flags().StringVar(&writing.PromptType, "type", models.PromptEssay, "Prompt type: essay, email or summary")
	gradeCmd.Flags().StringVar(&writing.PromptText, "prompt", "", "Prompt the learner answered")
	gradeCmd.Flags().IntVar(&writing.WordCountMin, "min-words", 0, "Lower word count bound")
	gradeCmd.Flags().IntVar(&writing.WordCountMax, "max-words", 0, "Upper word count bound")
	gradeCmd.Flags().IntVar(&writing.TimeSeconds, "seconds", 0, "Time spent writing in seconds")
	gradeCmd.Flags().StringVarP(&writingFile, "file", "f", "-", "Submission file (- for stdin)")
	badgesCmd.Flags().BoolVar(&badgeNotice, "notice", false, "Show and dismiss the next unseen badge")
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "Run one reconciliation pass and exit")

	rootCmd.AddCommand(migrateCmd, importCmd, sessionCmd, answerCmd, completeCmd, readingCmd,
		checkpointCmd, reviewCmd, dueCmd, gradeCmd, badgesCmd, statsCmd, wrongCmd, historyCmd, writingsCmd, workerCmd)
}

func newRandom(seed int64) quiz.Random {
	if seed == 0 {
		return quiz.NewRandom()
	}
	return rand.New(rand.NewSource(seed))
}

func vocabularyStore() excel.Store {
	return database.NewVocabularyRepository(current.db)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return errors.Wrap(enc.Encode(v), "failed to write output")
}
