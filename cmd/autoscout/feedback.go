package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillback/autoscout/internal/cli"
	"github.com/quillback/autoscout/internal/feedback"
	"github.com/quillback/autoscout/internal/model"
)

func feedbackCmd() *cobra.Command {
	var (
		projectID      string
		timeSavings    float64
		problemSolved  float64
		usability      float64
		sustainability float64
		satisfaction   float64
		actualCost     float64
		actualTimeline string
		comments       string
		recommend      bool
	)

	cmd := &cobra.Command{
		Use:   "feedback <proposal-id>",
		Short: "Record the actual outcome of a delivered proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			collector := feedback.NewCollector(store)
			outcome, err := collector.CollectFeedback(ctx, args[0], projectID, feedback.RawScores{
				Dimensions: model.ImpactBreakdown{
					TimeSavings:     timeSavings,
					ProblemSolution: problemSolved,
					Usability:       usability,
					Sustainability:  sustainability,
				},
				Satisfaction:   satisfaction,
				ActualCost:     actualCost,
				ActualTimeline: actualTimeline,
				Comments:       comments,
				WouldRecommend: recommend,
			})
			if err != nil {
				return fmt.Errorf("failed to record feedback: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render("Feedback recorded"))
			fmt.Printf("Actual impact: %.2f\n", outcome.ActualImpact)
			if outcome.PredictionAccuracy > 0 {
				fmt.Printf("Prediction accuracy: %.2f%%\n", outcome.PredictionAccuracy)
			} else {
				fmt.Println(cli.SubtleStyle.Render("No prediction on record for this proposal."))
			}
			fmt.Printf("Actual ROI: %.1fx\n", outcome.ActualROI)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "project identifier for the delivered work")
	cmd.Flags().Float64Var(&timeSavings, "time-savings", 0, "realized time savings score, 0-100")
	cmd.Flags().Float64Var(&problemSolved, "problem-solution", 0, "how well the problem was solved, 0-100")
	cmd.Flags().Float64Var(&usability, "usability", 0, "usability score, 0-100")
	cmd.Flags().Float64Var(&sustainability, "sustainability", 0, "sustainability score, 0-100")
	cmd.Flags().Float64Var(&satisfaction, "satisfaction", 0, "user satisfaction, 0-100")
	cmd.Flags().Float64Var(&actualCost, "actual-cost", 0, "actual delivery cost in becoin")
	cmd.Flags().StringVar(&actualTimeline, "timeline", "", "actual delivery timeline")
	cmd.Flags().StringVar(&comments, "comments", "", "free-form comments")
	cmd.Flags().BoolVar(&recommend, "recommend", false, "whether the user would recommend this automation")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
