package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quillback/autoscout/internal/cli"
	"github.com/quillback/autoscout/internal/report"
)

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summarize delivery performance across recorded outcomes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rep, err := report.NewReporter(store).Generate(ctx)
			if err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}

			fmt.Println(cli.TitleStyle.Render("Delivery performance"))
			fmt.Printf("Projects:          %d\n", rep.TotalProjects)
			if rep.TotalProjects > 0 {
				fmt.Printf("Mean accuracy:     %.1f%%\n", rep.MeanAccuracy)
				fmt.Printf("Mean satisfaction: %.1f\n", rep.MeanSatisfaction)
				fmt.Printf("Recommend rate:    %.0f%%\n", rep.RecommendRate*100)
				fmt.Printf("Accuracy trend:    %+.1f\n", rep.AccuracyTrend)
			}

			if len(rep.Categories) > 0 {
				fmt.Println()
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					cli.BoldStyle.Render("Category"),
					cli.BoldStyle.Render("Projects"),
					cli.BoldStyle.Render("Impact"),
					cli.BoldStyle.Render("Satisfaction"),
					cli.BoldStyle.Render("Accuracy"))
				for _, c := range rep.Categories {
					fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.1f%%\n",
						c.Category, c.Projects, c.MeanImpact, c.MeanSatisfaction, c.MeanAccuracy)
				}
				_ = w.Flush()
			}

			if len(rep.Insights) > 0 {
				fmt.Println()
				fmt.Println(cli.TitleStyle.Render("Insights"))
				for _, line := range rep.Insights {
					fmt.Println(cli.SubtleStyle.Render("  - " + line))
				}
			}
			return nil
		},
	}
}
