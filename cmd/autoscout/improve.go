package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillback/autoscout/internal/cli"
	"github.com/quillback/autoscout/internal/config"
	"github.com/quillback/autoscout/internal/improve"
	"github.com/quillback/autoscout/internal/trainer"
)

func improveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "improve",
		Short: "Run the self-improvement scheduler over recorded outcomes",
	}

	cmd.AddCommand(improveCheckCmd())
	cmd.AddCommand(improveRunCmd())
	cmd.AddCommand(improveStatusCmd())

	return cmd
}

func improveCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "List improvement actions that are currently due",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			scheduler := improve.NewScheduler(store, trainer.New(store), config.LoadImprovementConfig())
			actions, err := scheduler.CheckAndImprove(ctx)
			if err != nil {
				return fmt.Errorf("failed to check improvements: %w", err)
			}

			if len(actions) == 0 {
				fmt.Println(cli.SuccessStyle.Render("Nothing due. Estimators look healthy."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Pending improvements"))
			for _, a := range actions {
				fmt.Printf("  %s  %s\n", cli.BoldStyle.Render(string(a.Kind)), a.Reason)
			}
			return nil
		},
	}
}

func improveRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute all due improvements and report the accuracy delta",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			scheduler := improve.NewScheduler(store, trainer.New(store), config.LoadImprovementConfig())
			report, err := scheduler.RunOptimizationCycle(ctx)
			if err != nil {
				return fmt.Errorf("optimization cycle failed: %w", err)
			}

			fmt.Println(cli.TitleStyle.Render("Optimization cycle"))
			if len(report.Actions) == 0 {
				fmt.Println(cli.InfoStyle.Render("No actions were due."))
				return nil
			}
			for _, a := range report.Actions {
				fmt.Printf("  %s  %s\n", cli.BoldStyle.Render(string(a.Kind)), a.Reason)
			}
			fmt.Printf("Model accuracy: %.1f%% -> %.1f%% (%+.1f)\n",
				report.AccuracyBefore, report.AccuracyAfter, report.Delta)
			return nil
		},
	}
}

func improveStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the estimators need intervention",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			scheduler := improve.NewScheduler(store, trainer.New(store), config.LoadImprovementConfig())
			status, err := scheduler.GetOptimizationStatus(ctx)
			if err != nil {
				return fmt.Errorf("failed to load optimization status: %w", err)
			}

			fmt.Println(cli.TitleStyle.Render("Optimization status"))
			fmt.Printf("Projects recorded:   %d\n", status.TotalProjects)
			fmt.Printf("Mean accuracy:       %.1f%%\n", status.MeanAccuracy)
			fmt.Printf("Mean satisfaction:   %.1f\n", status.MeanSatisfaction)
			fmt.Printf("Improvement trend:   %+.1f\n", status.ImprovementTrend)
			if status.IsOptimal {
				fmt.Println(cli.SuccessStyle.Render("Status: optimal"))
			} else {
				fmt.Println(cli.WarningStyle.Render(
					fmt.Sprintf("Status: %d pending action(s)", len(status.PendingActions))))
				for _, a := range status.PendingActions {
					fmt.Printf("  %s  %s\n", cli.BoldStyle.Render(string(a.Kind)), a.Reason)
				}
			}
			return nil
		},
	}
}
