package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/leadmart/leadgen-cli/internal/model"
)

var (
	orderNiche     string
	orderLocation  string
	orderMaxCount  int
	orderRequester string
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect and submit lead orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending lead orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("orders"); err != nil {
			return err
		}

		q, err := initQueue(ctx)
		if err != nil {
			return err
		}
		defer q.Close()

		pending, err := q.ListPending(ctx)
		if err != nil {
			return eris.Wrap(err, "orders list")
		}
		if len(pending) == 0 {
			fmt.Fprintln(os.Stderr, "No pending orders.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNICHE\tLOCATION\tMAX\tREQUESTER\tCREATED")
		for _, o := range pending {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				o.ID, o.Niche, o.Location, o.MaxCount, o.Requester, o.CreatedAt)
		}
		return w.Flush()
	},
}

var ordersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Queue a new lead order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("orders"); err != nil {
			return err
		}
		if orderNiche == "" || orderLocation == "" {
			return eris.New("orders add: --niche and --location are required")
		}

		q, err := initQueue(ctx)
		if err != nil {
			return err
		}
		defer q.Close()

		order := model.LeadOrder{
			ID:        uuid.New().String(),
			CreatedAt: time.Now().UTC().Format(model.TimestampLayout),
			Niche:     orderNiche,
			Location:  orderLocation,
			MaxCount:  orderMaxCount,
			Requester: orderRequester,
			Status:    model.OrderStatusPending,
		}
		if err := q.Append(ctx, order); err != nil {
			return eris.Wrap(err, "orders add")
		}

		fmt.Printf("Order %s queued for %s / %s\n", order.ID, order.Niche, order.Location)
		return nil
	},
}

func init() {
	ordersAddCmd.Flags().StringVar(&orderNiche, "niche", "", "business niche to source (required)")
	ordersAddCmd.Flags().StringVar(&orderLocation, "location", "", "city/location to source (required)")
	ordersAddCmd.Flags().IntVar(&orderMaxCount, "max", 0, "max leads to acquire (default from config)")
	ordersAddCmd.Flags().StringVar(&orderRequester, "requester", "cli", "requester identity")

	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersAddCmd)
	rootCmd.AddCommand(ordersCmd)
}
