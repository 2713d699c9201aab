package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mroshb/trivia_bot/internal/config"
	"github.com/mroshb/trivia_bot/internal/importer"
	"github.com/mroshb/trivia_bot/internal/repositories"
	"github.com/mroshb/trivia_bot/internal/security"
	"github.com/mroshb/trivia_bot/internal/storage"
	"github.com/mroshb/trivia_bot/pkg/logger"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <questions.xlsx>",
		Short: "Import questions from an Excel workbook (one sheet per category)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuestions(cmd.Context(), func(questions *repositories.QuestionRepository) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open workbook: %w", err)
				}
				defer f.Close()

				bank, err := importer.ReadWorkbook(f)
				if err != nil {
					return err
				}
				for category := range bank {
					if err := security.ValidateCategoryName(category); err != nil {
						cmd.PrintErrf("skipping sheet %q: %v\n", category, err)
						delete(bank, category)
					}
				}

				n, err := questions.ImportItems(bank)
				if err != nil {
					return err
				}
				cmd.Printf("imported %d questions, bank now holds %d\n", n, questions.Count())
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <questions.xlsx>",
		Short: "Export the question bank to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuestions(cmd.Context(), func(questions *repositories.QuestionRepository) error {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create workbook: %w", err)
				}
				if err := importer.WriteWorkbook(f, questions.Bank()); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("failed to write workbook: %w", err)
				}
				cmd.Printf("exported %d questions to %s\n", questions.Count(), args[0])
				return nil
			})
		},
	}
}

// withQuestions opens the configured store for an offline command.
func withQuestions(ctx context.Context, fn func(*repositories.QuestionRepository) error) error {
	cfg, err := config.LoadStorageConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.AppEnv == "development")
	defer logger.Sync()

	store, err := storage.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := repositories.LoadState(ctx, store)
	if err != nil {
		return err
	}
	return fn(repositories.NewQuestionRepository(state))
}
