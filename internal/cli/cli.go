package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/nrbrt02/fast-shopping/internal/app"
	"github.com/nrbrt02/fast-shopping/internal/dto"
	"github.com/nrbrt02/fast-shopping/internal/migration"
	"github.com/nrbrt02/fast-shopping/internal/seeder"
	orderservice "github.com/nrbrt02/fast-shopping/internal/service/order"
)

const stopTimeout = 10 * time.Second

// NewRootCommand builds the root fastshop CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fastshop",
		Short:         "Fast Shopping order service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStartCmd(),
		newWorkerCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newOrdersCmd(),
	)
	return root
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), app.Module)
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Consume order events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), app.Worker)
		},
	})
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *migration.Migrator) error {
				if err := m.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			return withMigrator(cmd, func(ctx context.Context, m *migration.Migrator) error {
				if err := m.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	down.Flags().Int("steps", 1, "Number of migrations to roll back")
	down.Flags().Bool("all", false, "Roll back every applied migration")

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *migration.Migrator) error {
				states, err := m.Status(ctx)
				if err != nil {
					return err
				}
				return writeStatus(cmd.OutOrStdout(), states)
			})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func writeStatus(w io.Writer, states []migration.Status) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, st := range states {
		state, at := "pending", "-"
		if st.Applied {
			state, at = "applied", st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Version, state, at, st.Path)
	}
	return tw.Flush()
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo products and a draft order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Seed, fx.Populate(&seed))
			return runOnce(cmd.Context(), opts, func(ctx context.Context) error {
				if err := seed.Run(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seed data applied (draft %s for customer %d)\n",
					seeder.DemoDraftNumber, seeder.DemoCustomerID)
				return nil
			})
		},
	}
}

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Operate on orders as a customer",
	}
	cmd.PersistentFlags().Int64("customer", 0, "Customer id the command acts as")

	convert := &cobra.Command{
		Use:   "convert [draft-id]",
		Short: "Convert a draft order into a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOrders(cmd, func(ctx context.Context, svc *orderservice.Service, customer int64) error {
				order, err := svc.ConvertDraft(ctx, args[0], customer)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.NewOrderResponse(order))
			})
		},
	}

	show := &cobra.Command{
		Use:   "show [order-id]",
		Short: "Print one of the customer's orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid order id %q", args[0])
			}
			return withOrders(cmd, func(ctx context.Context, svc *orderservice.Service, customer int64) error {
				order, err := svc.Get(ctx, id, customer)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.NewOrderResponse(order))
			})
		},
	}

	cmd.AddCommand(convert, show)
	return cmd
}

func customerFlag(cmd *cobra.Command) (int64, error) {
	customer, _ := cmd.Flags().GetInt64("customer")
	if customer <= 0 {
		return 0, errors.New("--customer must be a positive customer id")
	}
	return customer, nil
}

func withOrders(cmd *cobra.Command, fn func(context.Context, *orderservice.Service, int64) error) error {
	customer, err := customerFlag(cmd)
	if err != nil {
		return err
	}
	var svc *orderservice.Service
	return runOnce(cmd.Context(), fx.Options(app.Core, fx.Populate(&svc)), func(ctx context.Context) error {
		return fn(ctx, svc, customer)
	})
}

func withMigrator(cmd *cobra.Command, fn func(context.Context, *migration.Migrator) error) error {
	var m *migration.Migrator
	return runOnce(cmd.Context(), fx.Options(app.Migrate, fx.Populate(&m)), func(ctx context.Context) error {
		return fn(ctx, m)
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// serve starts a long-running graph and stops it once ctx is cancelled.
func serve(ctx context.Context, opts fx.Option) error {
	application := fx.New(opts)
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return application.Stop(stopCtx)
}

// runOnce starts a quiet graph, runs fn against it, then stops it.
func runOnce(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
