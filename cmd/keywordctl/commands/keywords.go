package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
	"github.com/spf13/cobra"
)

// NewSeedCmd creates the seed command
func NewSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed [keywords...]",
		Short: "Add keywords to the rotation pool",
		Long:  "Add keywords from arguments and/or a YAML file. Existing keywords keep their usage counters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			keywords := append([]string{}, args...)
			if file != "" {
				fromFile, err := readKeywordFile(file)
				if err != nil {
					return err
				}
				keywords = append(keywords, fromFile...)
			}
			if len(keywords) == 0 {
				return fmt.Errorf("no keywords given (pass them as arguments or with --file)")
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			svc, err := e.rotationService()
			if err != nil {
				return err
			}

			res, err := svc.AddKeywords(context.Background(), keywords)
			if err != nil {
				return fmt.Errorf("seed keyword pool: %w", err)
			}
			printAdded(cmd.OutOrStdout(), res.Added, res.Keywords)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with a list of keywords")
	return cmd
}

// NewBackfillCmd creates the backfill command
func NewBackfillCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Seed the pool from recent keyword queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			svc, err := e.rotationService()
			if err != nil {
				return err
			}

			res, err := svc.SeedPoolFromKeywordQueries(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("back-fill keyword pool: %w", err)
			}
			printAdded(cmd.OutOrStdout(), res.Added, res.Keywords)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", rotation.DefaultBackfillLimit, "Number of recent keyword queries to scan (max 500)")
	return cmd
}

// NewRotateCmd creates the rotate command
func NewRotateCmd() *cobra.Command {
	var count int
	var date string
	var force bool
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Select the keywords for a day",
		Long:  "Select the least recently used keywords for a day. An existing selection is kept unless --force is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			svc, err := e.rotationService()
			if err != nil {
				return err
			}

			opts := rotation.RotateOptions{Count: count, Force: force}
			if date != "" {
				day, err := rotation.ParseDate(date, svc.Location())
				if err != nil {
					return err
				}
				opts.Date = day
			}

			res, err := svc.RotateKeywords(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("rotate keywords: %w", err)
			}
			printRotation(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Number of keywords to select (1-10, default from ROTATION_DEFAULT_COUNT)")
	cmd.Flags().StringVar(&date, "date", "", "Day to rotate (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&force, "force", false, "Recompute a day that already has a selection")
	return cmd
}

// NewActiveCmd creates the active command
func NewActiveCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "active",
		Short: "Show the keywords selected for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			svc, err := e.rotationService()
			if err != nil {
				return err
			}

			var day time.Time
			if date != "" {
				day, err = rotation.ParseDate(date, svc.Location())
				if err != nil {
					return err
				}
			}
			keywords, err := svc.GetActiveKeywordsForDate(context.Background(), day)
			if err != nil {
				return fmt.Errorf("get active keywords: %w", err)
			}

			out := cmd.OutOrStdout()
			key := svc.DateKey(day)
			if keywords == nil {
				_, _ = fmt.Fprintf(out, "No selection for %s. Use 'rotate' to create one.\n", key)
				return nil
			}
			printRotation(out, &models.RotationResult{Date: key, Keywords: keywords})
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to show (YYYY-MM-DD, default today)")
	return cmd
}

// NewPoolCmd creates the pool command
func NewPoolCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "List the keyword pool in rotation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			svc, err := e.rotationService()
			if err != nil {
				return err
			}

			pool, err := svc.ListPool(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("list keyword pool: %w", err)
			}
			printPool(cmd.OutOrStdout(), pool, svc.Location())
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of entries to list")
	return cmd
}

func printAdded(out io.Writer, added int, keywords []string) {
	if added == 0 {
		_, _ = fmt.Fprintln(out, "No new keywords added.")
		return
	}
	_, _ = fmt.Fprintf(out, "Added %d keyword(s):\n", added)
	for _, kw := range keywords {
		_, _ = fmt.Fprintf(out, "  - %s\n", kw)
	}
}

func printRotation(out io.Writer, res *models.RotationResult) {
	_, _ = fmt.Fprintf(out, "Date: %s\n", res.Date)
	if res.Seeded != nil {
		_, _ = fmt.Fprintf(out, "Back-filled: %d new keyword(s)\n", *res.Seeded)
	}
	if len(res.Keywords) == 0 {
		_, _ = fmt.Fprintln(out, "Keywords: (none)")
		return
	}
	_, _ = fmt.Fprintln(out, "Keywords:")
	for i, kw := range res.Keywords {
		_, _ = fmt.Fprintf(out, "  %d. %s\n", i+1, kw)
	}
}

func printPool(out io.Writer, pool []*models.PoolKeyword, loc *time.Location) {
	if len(pool) == 0 {
		_, _ = fmt.Fprintln(out, "Keyword pool is empty. Use 'seed' or 'backfill' to add keywords.")
		return
	}
	width := len("KEYWORD")
	for _, kw := range pool {
		if len(kw.Keyword) > width {
			width = len(kw.Keyword)
		}
	}
	_, _ = fmt.Fprintf(out, "%-*s  %-10s  %s\n", width, "KEYWORD", "LAST USED", "TIMES USED")
	for _, kw := range pool {
		lastUsed := "never"
		if kw.LastUsed != nil {
			lastUsed = rotation.DateKey(kw.LastUsed.In(loc))
		}
		_, _ = fmt.Fprintf(out, "%-*s  %-10s  %d\n", width, kw.Keyword, lastUsed, kw.TimesUsed)
	}
	_, _ = fmt.Fprintln(out, strings.Repeat("-", width+26))
	_, _ = fmt.Fprintf(out, "%d keyword(s)\n", len(pool))
}
