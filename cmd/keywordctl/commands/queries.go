package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/keyword-rotator/internal/services/ai"
	"github.com/benvon/keyword-rotator/internal/services/diversifier"
	"github.com/spf13/cobra"
)

// NewDiversifyCmd creates the diversify command. It needs no database.
func NewDiversifyCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "diversify <keyword>",
		Short: "Expand a keyword into search query variations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.Join(args, " ")
			queries := diversifier.New().GenerateDiverseQueries(keyword, count)
			out := cmd.OutOrStdout()
			if len(queries) == 0 {
				_, _ = fmt.Fprintln(out, "No queries generated.")
				return nil
			}
			for _, q := range queries {
				_, _ = fmt.Fprintln(out, q)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", diversifier.DefaultTargetCount, "Maximum number of queries")
	return cmd
}

// NewSuggestCmd creates the suggest command
func NewSuggestCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "suggest <topic>",
		Short: "Seed AI suggested keywords for a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			suggester, err := ai.NewSuggester(ai.ProviderConfig{
				Provider: e.cfg.AIProvider,
				APIKey:   e.cfg.OpenAIKey,
				Model:    e.cfg.AIModel,
				BaseURL:  e.cfg.AIBaseURL,
				Logger:   cliLog,
			})
			if err != nil {
				return err
			}
			svc, err := e.rotationService()
			if err != nil {
				return err
			}

			res, err := svc.SeedSuggestions(context.Background(), suggester, strings.Join(args, " "), count)
			if err != nil {
				return fmt.Errorf("suggest keywords: %w", err)
			}
			printAdded(cmd.OutOrStdout(), res.Added, res.Keywords)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "Number of keywords to request")
	return cmd
}
