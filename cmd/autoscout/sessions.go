package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quillback/autoscout/internal/cli"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect persisted discovery sessions",
	}

	cmd.AddCommand(listSessionsCmd())
	cmd.AddCommand(showSessionCmd())

	return cmd
}

func listSessionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent discovery sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sessions, err := store.ListSessions(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			if len(sessions) == 0 {
				fmt.Println(cli.InfoStyle.Render("No sessions yet. Run 'autoscout discover' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Started"),
				cli.BoldStyle.Render("Patterns"),
				cli.BoldStyle.Render("Pain points"),
				cli.BoldStyle.Render("Proposals"))
			for i := range sessions {
				s := &sessions[i]
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
					s.ID, s.StartedAt.Format("2006-01-02 15:04"),
					len(s.Patterns), len(s.PainPoints), len(s.Proposals))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list")
	return cmd
}

func showSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session's proposals in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			session, err := store.GetSession(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Session %s (%s)", session.ID, session.Status)))
			for i := range session.Proposals {
				p := &session.Proposals[i]
				fmt.Println(cli.BoldStyle.Render(p.Title))
				fmt.Printf("  id: %s\n  cost: %.0f becoin  timeline: %s  risk: %s\n",
					p.ID, p.Cost, p.Timeline, p.RiskLevel)
				fmt.Printf("  team: %v\n", p.Team)
				if p.Prediction != nil {
					fmt.Printf("  impact: %d  roi: %.1fx  confidence: %.2f\n",
						p.Prediction.OverallImpact, p.Prediction.ExpectedROI, p.Prediction.Confidence)
					fmt.Println(cli.SubtleStyle.Render("  " + p.Prediction.Rationale))
				}
				fmt.Println()
			}
			return nil
		},
	}
}
