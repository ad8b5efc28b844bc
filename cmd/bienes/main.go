package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/bienes/internal/api"
	"github.com/mtlprog/bienes/internal/config"
	"github.com/mtlprog/bienes/internal/csvio"
	"github.com/mtlprog/bienes/internal/export"
	"github.com/mtlprog/bienes/internal/store"
	"github.com/mtlprog/bienes/internal/valuation"
	"github.com/mtlprog/bienes/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	app := &cli.App{
		Name:  "bienes",
		Usage: "fixed asset registry, depreciation and inflation adjustment",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cuit", Usage: "company CUIT", Value: cfg.CompanyCUIT},
		},
		Commands: []*cli.Command{
			migrateCommand(cfg),
			companyCommand(cfg),
			assetsCommand(cfg),
			indicesCommand(cfg),
			closeCommand(cfg),
			serveCommand(cfg),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and the background close and index workers",
		Action: func(c *cli.Context) error {
			ctx, stop := context.WithCancel(c.Context)
			defer stop()

			repo, err := store.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer repo.Close()

			closer := valuation.NewService(repo, cfg.BatchConcurrency)

			if cuit := c.String("cuit"); cuit != "" {
				hook, err := exporters(ctx, cfg, cfg.ExportXLSXPath, cfg.SheetsEnabled())
				if err != nil {
					return err
				}
				closeWorker := worker.NewCloseWorker(closer, cuit, cfg.ExportInterval, hook)
				go closeWorker.Run(ctx)
			} else {
				slog.Warn("COMPANY_CUIT not set, close worker disabled")
			}

			if cfg.IndicesFile != "" {
				importer := csvio.NewFileImporter(cfg.IndicesFile, repo)
				go worker.NewIndexImportWorker(importer, cfg.IndexImportInterval).Run(ctx)
			}

			if cfg.AdminAPIKey == "" {
				slog.Warn("ADMIN_API_KEY not set, index writes are unprotected")
			}

			srv := api.NewServer(cfg.HTTPPort, api.NewHandler(repo, closer), cfg.AdminAPIKey)

			go func() {
				slog.Info("HTTP server listening", "port", cfg.HTTPPort)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("HTTP server error", "error", err)
					stop()
				}
			}()

			<-ctx.Done()
			slog.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}

			slog.Info("shutdown complete")
			return nil
		},
	}
}

// exporters builds the configured export destinations. It returns a nil hook when
// none is configured.
func exporters(ctx context.Context, cfg config.Config, xlsxPath string, sheets bool) (worker.AfterCloseHook, error) {
	var fanout export.Fanout
	if xlsxPath != "" {
		fanout = append(fanout, export.NewService(export.NewXLSXWriter(xlsxPath)))
	}
	if sheets {
		if !cfg.SheetsEnabled() {
			return nil, cli.Exit("GOOGLE_SHEETS_ID and GOOGLE_CREDENTIALS_JSON are required for Sheets export", 1)
		}
		sw, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("creating sheets writer: %w", err)
		}
		fanout = append(fanout, export.NewService(sw))
	}
	if len(fanout) == 0 {
		return nil, nil
	}
	return fanout, nil
}
