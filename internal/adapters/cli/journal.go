package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/warehouse-go/internal/adapters/persistence"
	"github.com/andrescamacho/warehouse-go/internal/application/common"
	"github.com/andrescamacho/warehouse-go/internal/application/journal"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
	"github.com/andrescamacho/warehouse-go/internal/infrastructure/database"
)

// NewJournalCommand creates the journal command with subcommands
func NewJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the service journal",
		Long: `Query the journal written by "warehouse-sim run --journal".

Examples:
  warehouse-sim journal recent
  warehouse-sim journal recent --limit 100
  warehouse-sim journal truck 3f2a9c1e-...
  warehouse-sim journal summary`,
	}

	cmd.AddCommand(newJournalRecentCommand())
	cmd.AddCommand(newJournalTruckCommand())
	cmd.AddCommand(newJournalSummaryCommand())

	return cmd
}

// withJournal opens the configured journal database, registers the journal
// queries on a mediator and runs fn with it
func withJournal(fn func(ctx context.Context, m common.Mediator, warehouseName string) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openJournal(&cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	m := common.NewMediator()
	if err := journal.RegisterHandlers(m, persistence.NewGormServiceJournalRepository(db)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return fn(ctx, m, cfg.Warehouse.Name)
}

// sendQuery dispatches a query and asserts the response type
func sendQuery[R any](ctx context.Context, m common.Mediator, query common.Request) (R, error) {
	var zero R
	resp, err := m.Send(ctx, query)
	if err != nil {
		return zero, err
	}
	result, ok := resp.(R)
	if !ok {
		return zero, fmt.Errorf("unexpected response type %T", resp)
	}
	return result, nil
}

func newJournalRecentCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(func(ctx context.Context, m common.Mediator, name string) error {
				resp, err := sendQuery[*journal.ServicesResponse](ctx, m, &journal.RecentServicesQuery{
					Warehouse: name,
					Limit:     limit,
				})
				if err != nil {
					return err
				}
				if len(resp.Entries) == 0 {
					fmt.Println("No services recorded")
					return nil
				}
				printEntries(resp.Entries)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", journal.DefaultRecentLimit, "Maximum entries to show")

	return cmd
}

func newJournalTruckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "truck <truck-id>",
		Short: "Show every service of one truck, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(func(ctx context.Context, m common.Mediator, _ string) error {
				resp, err := sendQuery[*journal.ServicesResponse](ctx, m, &journal.TruckServicesQuery{TruckID: args[0]})
				if err != nil {
					return err
				}
				if len(resp.Entries) == 0 {
					fmt.Printf("No services recorded for truck %s\n", args[0])
					return nil
				}
				printEntries(resp.Entries)
				return nil
			})
		},
	}
}

func newJournalSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count successful services by transfer kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(func(ctx context.Context, m common.Mediator, name string) error {
				resp, err := sendQuery[*journal.ServiceSummaryResponse](ctx, m, &journal.ServiceSummaryQuery{Warehouse: name})
				if err != nil {
					return err
				}

				fmt.Printf("Services at %s\n", resp.Warehouse)
				for _, row := range resp.Counts {
					fmt.Printf("  %-8s %d\n", row.Kind, row.Count)
				}
				fmt.Printf("  %-8s %d\n", "TOTAL", resp.Total())
				return nil
			})
		},
	}
}

func printEntries(entries []warehouse.JournalEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tTRUCK\tKIND\tBLOCKS\tLEN\tCURSOR\tAVAIL\tDURATION\tRESULT")
	for _, e := range entries {
		result := "ok"
		switch {
		case e.Error != "":
			result = e.Error
		case e.Interrupted:
			result = "interrupted"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			e.StartedAt.Format("15:04:05.000"),
			e.TruckName,
			e.Kind,
			e.Blocks,
			e.StorageLength,
			e.StorageCursor,
			e.StorageAvailable,
			e.FinishedAt.Sub(e.StartedAt).Round(time.Millisecond),
			result,
		)
	}
	w.Flush()
}
