package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quillback/autoscout/internal/cli"
	"github.com/quillback/autoscout/internal/model"
	"github.com/quillback/autoscout/internal/treasury"
)

func treasuryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "treasury",
		Short: "Inspect and operate the becoin treasury",
	}

	cmd.AddCommand(treasuryStatusCmd())
	cmd.AddCommand(treasuryReserveCmd())
	cmd.AddCommand(treasuryCommitCmd())
	cmd.AddCommand(treasuryCancelCmd())
	cmd.AddCommand(treasuryRevenueCmd())

	return cmd
}

func treasuryStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current treasury snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ledger := treasury.NewLedger(store)
			snap, err := ledger.GetSnapshot(ctx)
			if err != nil {
				return fmt.Errorf("failed to load treasury: %w", err)
			}

			fmt.Println(cli.TitleStyle.Render("Treasury"))
			printSnapshot(snap)
			return nil
		},
	}
}

func printSnapshot(snap model.TreasurySnapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "Balance:\t%.2f becoin\n", snap.Balance)
	fmt.Fprintf(w, "Reserved:\t%.2f becoin\n", snap.Reserved)
	fmt.Fprintf(w, "Available:\t%.2f becoin\n", snap.Available)
	fmt.Fprintf(w, "Burn rate:\t%.2f becoin/hr\n", snap.BurnRate)
	if math.IsInf(snap.RunwayHours, 1) {
		fmt.Fprintf(w, "Runway:\tunlimited\n")
	} else {
		fmt.Fprintf(w, "Runway:\t%.1f hours (%.1f days)\n", snap.RunwayHours, snap.RunwayHours/24)
	}
}

func treasuryReserveCmd() *cobra.Command {
	var (
		amount float64
		reason string
	)

	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Reserve budget against the available balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ledger := treasury.NewLedger(store)
			res, err := ledger.ReserveBudget(ctx, amount, reason)
			if err != nil {
				return fmt.Errorf("failed to reserve budget: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Reserved %.2f becoin (reservation %s)", res.Amount, res.ID)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "amount to reserve in becoin")
	cmd.Flags().StringVar(&reason, "reason", "", "what the reservation is for")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func treasuryCommitCmd() *cobra.Command {
	var actualCost float64

	cmd := &cobra.Command{
		Use:   "commit <reservation-id>",
		Short: "Commit a reservation, spending the actual cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ledger := treasury.NewLedger(store)
			snap, err := ledger.CommitReservation(ctx, args[0], actualCost)
			if err != nil {
				return fmt.Errorf("failed to commit reservation: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render("Reservation committed"))
			printSnapshot(snap)
			return nil
		},
	}

	cmd.Flags().Float64Var(&actualCost, "actual-cost", 0, "actual cost in becoin (defaults to the reserved amount)")
	return cmd
}

func treasuryCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel a reservation, releasing its funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ledger := treasury.NewLedger(store)
			if err := ledger.CancelReservation(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to cancel reservation: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render("Reservation cancelled"))
			return nil
		},
	}
}

func treasuryRevenueCmd() *cobra.Command {
	var (
		amount      float64
		description string
	)

	cmd := &cobra.Command{
		Use:   "revenue",
		Short: "Record revenue, increasing the balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ledger := treasury.NewLedger(store)
			snap, err := ledger.RecordRevenue(ctx, amount, description)
			if err != nil {
				return fmt.Errorf("failed to record revenue: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Recorded %.2f becoin revenue", amount)))
			printSnapshot(snap)
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "revenue amount in becoin")
	cmd.Flags().StringVar(&description, "description", "", "what generated the revenue")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
