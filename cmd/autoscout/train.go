package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quillback/autoscout/internal/cli"
	"github.com/quillback/autoscout/internal/trainer"
)

func trainCmd() *cobra.Command {
	var (
		epochs  int
		pending bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the impact and cost estimators from recorded outcomes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			examples, err := store.ListTrainingExamples(ctx, pending)
			if err != nil {
				return fmt.Errorf("failed to load training examples: %w", err)
			}
			if len(examples) == 0 {
				fmt.Println(cli.InfoStyle.Render("No training examples yet. Record feedback first."))
				return nil
			}

			if !cmd.Flags().Changed("epochs") {
				if v := viper.GetInt("training.epochs"); v > 0 {
					epochs = v
				}
			}
			if epochs <= 0 {
				epochs = trainer.DefaultEpochs
			}

			tr := trainer.New(store)

			// Two models train back to back; one bar covers both.
			bar := progressbar.NewOptions(epochs*2,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Training estimators...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
			tr.SetEpochHook(func(_, _ int) { _ = bar.Add(1) })

			impact, err := tr.TrainImpactPredictor(ctx, examples, epochs)
			if err != nil {
				return fmt.Errorf("failed to train impact predictor: %w", err)
			}
			cost, err := tr.TrainCostEstimator(ctx, examples, epochs)
			if err != nil {
				return fmt.Errorf("failed to train cost estimator: %w", err)
			}
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)

			if pending {
				ids := make([]string, 0, len(examples))
				for i := range examples {
					ids = append(ids, examples[i].Proposal.ID)
				}
				if err := store.MarkTrainingExamplesConsumed(ctx, ids); err != nil {
					return fmt.Errorf("failed to mark examples consumed: %w", err)
				}
			}

			fmt.Println(cli.SuccessStyle.Render("Training complete"))
			fmt.Printf("Impact predictor: v%d, accuracy %.1f%% (%d examples)\n",
				impact.Version, impact.Accuracy, impact.TrainingSetSize)
			fmt.Printf("Cost estimator:   v%d, accuracy %.1f%% (%d examples)\n",
				cost.Version, cost.Accuracy, cost.TrainingSetSize)
			return nil
		},
	}

	cmd.Flags().IntVar(&epochs, "epochs", trainer.DefaultEpochs, "training epochs per model")
	cmd.Flags().BoolVar(&pending, "pending-only", true, "train only on examples not yet consumed")
	return cmd
}
