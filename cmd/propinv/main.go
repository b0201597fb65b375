package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/propinv/internal/config"
	"github.com/vbonduro/propinv/internal/domain"
	"github.com/vbonduro/propinv/internal/export"
	"github.com/vbonduro/propinv/internal/logging"
	"github.com/vbonduro/propinv/internal/web"
)

var rootCmd = &cobra.Command{
	Use:           "propinv",
	Short:         "Property condition inventories: rooms, photos, signatures and reports",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List inventories, most recently updated first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var exportCmd = &cobra.Command{
	Use:   "export [inventory id]",
	Short: "Write an inventory's report and vault photos to the blob store",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().Bool("last", false, "print the manifest of the latest export instead of exporting again")
	rootCmd.AddCommand(serveCmd, listCmd, exportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("propinv: %v", err)
		stop()
		os.Exit(1)
	}
}

// withApp loads config and the logger, wires the application and hands it
// to fn. Resources are released when fn returns.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		server := web.NewServer(a.service, a.exporter, a.metrics, a.logger, a.cfg.MaxUploadBytes)

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.ListenAndServe(gCtx, a.cfg.ListenAddr)
		})
		if err := g.Wait(); err != nil {
			a.logger.Error("server error", "error", err)
			return err
		}
		a.logger.Info("server stopped")
		return nil
	})
}

func runList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		inventories, err := a.service.ListInventories(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tCREATED\tUPDATED\tADDRESS")
		for _, inv := range inventories {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", inv.ID, inv.Status,
				domain.FormatDate(inv.DateCreated), domain.FormatDateTime(inv.DateUpdated), inv.Address)
		}
		return tw.Flush()
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	last, _ := cmd.Flags().GetBool("last")
	return withApp(cmd, func(ctx context.Context, a *app) error {
		var manifest *export.Manifest
		if last {
			m, err := a.exporter.LastExport(ctx, args[0])
			if err != nil {
				return err
			}
			manifest = m
		} else {
			inv, rep, err := a.service.Report(ctx, args[0])
			if err != nil {
				return err
			}
			m, err := a.exporter.Export(ctx, inv, rep)
			if err != nil {
				return err
			}
			manifest = m
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	})
}
