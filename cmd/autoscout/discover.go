package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/quillback/autoscout/internal/cli"
	"github.com/quillback/autoscout/internal/config"
	"github.com/quillback/autoscout/internal/engine"
	"github.com/quillback/autoscout/internal/extractor"
	"github.com/quillback/autoscout/internal/treasury"
)

func discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run a discovery session",
		Long: `Read behavioral telemetry, classify pain points, synthesize costed
proposals gated by the treasury, forecast their impact and persist the
resulting session.`,
		RunE: runDiscover,
	}

	cmd.Flags().Int("window-hours", 0, "how many hours of telemetry to analyze (overrides config)")
	cmd.Flags().Float64("min-confidence", -1, "minimum pattern confidence (overrides config)")

	return cmd
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cfg, err := config.LoadDiscoveryConfig()
	if err != nil {
		return err
	}
	if hours, _ := cmd.Flags().GetInt("window-hours"); hours > 0 {
		cfg.Window = time.Duration(hours) * time.Hour
	}
	if minConf, _ := cmd.Flags().GetFloat64("min-confidence"); minConf >= 0 {
		cfg.MinConfidence = minConf
	}

	analyzer := extractor.NewDirAnalyzer(sourcesDir())
	ledger := treasury.NewLedger(store)
	disc := engine.New(analyzer, ledger, store, cfg)
	disc.SetObserver(stageProgress{})

	session, err := disc.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Discovery session %s", session.ID)))
	fmt.Printf("patterns: %d  pain points: %d  proposals: %d\n\n",
		len(session.Patterns), len(session.PainPoints), len(session.Proposals))

	if len(session.Proposals) == 0 {
		fmt.Println(cli.InfoStyle.Render("Nothing to propose this run."))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		cli.BoldStyle.Render("Title"),
		cli.BoldStyle.Render("Cost"),
		cli.BoldStyle.Render("ROI"),
		cli.BoldStyle.Render("Impact"),
		cli.BoldStyle.Render("Risk"))
	for i := range session.Proposals {
		p := &session.Proposals[i]
		fmt.Fprintf(w, "%s\t%.0f\t%.1fx\t%d\t%s\n",
			p.Title, p.Cost, p.Prediction.ExpectedROI, p.Prediction.OverallImpact, p.RiskLevel)
	}

	return nil
}

// stageProgress renders stage events as they complete.
type stageProgress struct{}

func (stageProgress) StageCompleted(event engine.StageEvent) {
	fmt.Println(cli.SubtleStyle.Render(
		fmt.Sprintf("  %-10s produced=%d dropped=%d", event.Stage, event.Produced, event.Dropped)))
}
