package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stolenpainting/internal/config"
	"stolenpainting/internal/logging"
)

var reviewLimit int

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List the most recent chat completions from the journal",
	Args:  cobra.NoArgs,
	RunE:  runReview,
}

var rateCmd = &cobra.Command{
	Use:   "rate <id> <rating> [notes...]",
	Short: "Rate a journaled completion from 1 to 5",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRate,
}

func init() {
	reviewCmd.Flags().IntVarP(&reviewLimit, "limit", "n", 10, "number of completions to show")
}

func openJournal() (*logging.CompletionLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewCompletionLogger(cfg.CompletionsDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open completion database: %w", err)
	}
	return logger, nil
}

func runReview(cmd *cobra.Command, _ []string) error {
	logger, err := openJournal()
	if err != nil {
		return err
	}
	defer logger.Close()

	completions, err := logger.GetRecentCompletions(reviewLimit)
	if err != nil {
		return fmt.Errorf("failed to get completions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(completions) == 0 {
		fmt.Fprintln(out, "No completions found. Play the game first to generate data!")
		return nil
	}

	fmt.Fprintf(out, "Recent completions (%d):\n\n", len(completions))
	for _, comp := range completions {
		if metadata, err := comp.DecodeMetadata(); err == nil {
			fmt.Fprintf(out, "[%d] %s | %s | %v | %s\n",
				comp.ID,
				comp.Timestamp.Format("15:04:05"),
				comp.Speaker,
				metadata.ResponseTime,
				metadata.Model)
			if metadata.Error != nil {
				fmt.Fprintf(out, "Error: %s\n", *metadata.Error)
			}
		} else {
			fmt.Fprintf(out, "[%d] %s | %s\n", comp.ID, comp.Timestamp.Format("15:04:05"), comp.Speaker)
		}

		fmt.Fprintf(out, "Response: %s\n", comp.Response)
		if comp.Rating != nil {
			fmt.Fprintf(out, "Rating: %d/5", *comp.Rating)
			if comp.Notes != nil {
				fmt.Fprintf(out, " - %s", *comp.Notes)
			}
		} else {
			fmt.Fprint(out, "Rating: not rated")
		}
		fmt.Fprintln(out, "\n"+strings.Repeat("-", 50))
	}

	fmt.Fprintln(out, "\nTo rate a completion: game rate <id> <rating> [notes]")
	return nil
}

func runRate(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid ID: %w", err)
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid rating: %w", err)
	}
	notes := strings.Join(args[2:], " ")

	logger, err := openJournal()
	if err != nil {
		return err
	}
	defer logger.Close()

	if err := logger.RateCompletion(id, rating, notes); err != nil {
		return fmt.Errorf("failed to rate completion: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rated completion %d as %d/5", id, rating)
	if notes != "" {
		fmt.Fprintf(out, " with notes: %s", notes)
	}
	fmt.Fprintln(out)
	return nil
}
