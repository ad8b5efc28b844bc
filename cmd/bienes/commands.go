package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/bienes/internal/config"
	"github.com/mtlprog/bienes/internal/csvio"
	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
	"github.com/mtlprog/bienes/internal/valuation"
)

func migrateCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or upgrade the database schema",
		Action: func(c *cli.Context) error {
			repo, err := openStore(c, cfg)
			if err != nil {
				return err
			}
			slog.Info("database ready", "url", redactURL(cfg.DatabaseURL))
			return repo.Close()
		},
	}
}

func companyCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "company",
		Usage: "manage the company profile",
		Subcommands: []*cli.Command{{
			Name:      "load",
			Usage:     "load the company profile from a YAML file",
			ArgsUsage: "[empresa.yaml]",
			Action: func(c *cli.Context) error {
				path := c.Args().First()
				if path == "" {
					path = cfg.CompanyFile
				}
				company, err := config.LoadCompany(path)
				if err != nil {
					return err
				}

				repo, err := openStore(c, cfg)
				if err != nil {
					return err
				}
				defer repo.Close()

				if err := repo.UpsertCompany(c.Context, company); err != nil {
					return fmt.Errorf("saving company: %w", err)
				}
				slog.Info("company loaded", "cuit", company.CUIT, "name", company.Name, "asset_types", len(company.AssetTypes))
				return nil
			},
		}},
	}
}

func assetsCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "assets",
		Usage: "import and export the asset registry",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "replace the company's assets with the rows of a CSV file",
				ArgsUsage: "<file.csv>",
				Action: func(c *cli.Context) error {
					path, err := requireArg(c)
					if err != nil {
						return err
					}
					repo, company, err := openCompany(c, cfg)
					if err != nil {
						return err
					}
					defer repo.Close()

					f, err := os.Open(path)
					if err != nil {
						return err
					}
					defer f.Close()

					assets, rowErrs, err := csvio.ReadAssets(f, company.AssetTypes)
					if err != nil {
						return err
					}
					for _, re := range rowErrs {
						slog.Warn("skipping asset row", "file", path, "line", re.Line, "error", re.Err)
					}
					if len(assets) == 0 && len(rowErrs) > 0 {
						return cli.Exit(fmt.Sprintf("no valid rows in %s", path), 1)
					}

					if err := repo.ReplaceAssets(c.Context, company.CUIT, assets); err != nil {
						return fmt.Errorf("saving assets: %w", err)
					}
					slog.Info("assets imported", "cuit", company.CUIT, "imported", len(assets), "skipped", len(rowErrs))
					return nil
				},
			},
			{
				Name:      "export",
				Usage:     "write the company's assets to a CSV file",
				ArgsUsage: "<file.csv>",
				Flags: append(closingFlags(),
					&cli.StringFlag{Name: "mode", Usage: "base, historical or adjusted", Value: "base"},
				),
				Action: func(c *cli.Context) error {
					path, err := requireArg(c)
					if err != nil {
						return err
					}
					mode, err := parseMode(c.String("mode"))
					if err != nil {
						return err
					}

					repo, company, err := openCompany(c, cfg)
					if err != nil {
						return err
					}
					defer repo.Close()

					var (
						assets []domain.Asset
						report valuation.Report
					)
					if mode == csvio.ModeBase {
						assets, err = repo.ListAssets(c.Context, company.CUIT)
					} else {
						report, err = valuation.NewService(repo, cfg.BatchConcurrency).
							Close(c.Context, company.CUIT, c.String("closing"), c.String("prior"))
						assets = report.Assets
					}
					if err != nil {
						return err
					}

					return writeFile(path, func(w io.Writer) error {
						return csvio.WriteAssets(w, assets, report.Depreciation, report.Inflation, mode)
					})
				},
			},
			{
				Name:      "template",
				Usage:     "write an empty import template using the company's asset types",
				ArgsUsage: "<file.csv>",
				Action: func(c *cli.Context) error {
					path, err := requireArg(c)
					if err != nil {
						return err
					}
					repo, company, err := openCompany(c, cfg)
					if err != nil {
						return err
					}
					defer repo.Close()

					return writeFile(path, func(w io.Writer) error {
						return csvio.WriteTemplate(w, company.AssetTypes)
					})
				},
			},
		},
	}
}

func indicesCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "indices",
		Usage: "import and export the FACPCE index series",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "upsert index observations from a CSV file",
				ArgsUsage: "<file.csv>",
				Action: func(c *cli.Context) error {
					path, err := requireArg(c)
					if err != nil {
						return err
					}
					repo, err := openStore(c, cfg)
					if err != nil {
						return err
					}
					defer repo.Close()

					n, err := csvio.NewFileImporter(path, repo).ImportIndices(c.Context)
					if err != nil {
						return err
					}
					slog.Info("indices imported", "file", path, "count", n)
					return nil
				},
			},
			{
				Name:      "export",
				Usage:     "write the stored index series to a CSV file",
				ArgsUsage: "<file.csv>",
				Action: func(c *cli.Context) error {
					path, err := requireArg(c)
					if err != nil {
						return err
					}
					repo, err := openStore(c, cfg)
					if err != nil {
						return err
					}
					defer repo.Close()

					obs, err := repo.ListIndices(c.Context)
					if err != nil {
						return err
					}
					reg := index.NewRegistry()
					for _, o := range obs {
						reg.Restore(o)
					}
					return writeFile(path, func(w io.Writer) error {
						return csvio.WriteIndices(w, reg)
					})
				},
			},
		},
	}
}

func closeCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "close",
		Usage: "compute the fiscal close and optionally export it",
		Flags: append(closingFlags(),
			&cli.StringFlag{Name: "xlsx", Usage: "write the close to this XLSX workbook", Value: cfg.ExportXLSXPath},
			&cli.BoolFlag{Name: "sheets", Usage: "write the close to the configured Google spreadsheet"},
		),
		Action: func(c *cli.Context) error {
			repo, company, err := openCompany(c, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			report, err := valuation.NewService(repo, cfg.BatchConcurrency).
				Close(c.Context, company.CUIT, c.String("closing"), c.String("prior"))
			if err != nil {
				return err
			}

			printSummary(c.App.Writer, report)

			hook, err := exporters(c.Context, cfg, c.String("xlsx"), c.Bool("sheets"))
			if err != nil {
				return err
			}
			if hook != nil {
				if err := hook.Export(c.Context, report); err != nil {
					return fmt.Errorf("exporting close: %w", err)
				}
				slog.Info("close exported", "cuit", company.CUIT, "closing", report.Closing)
			}
			return nil
		},
	}
}

func printSummary(w io.Writer, r valuation.Report) {
	t := r.Totals
	fmt.Fprintf(w, "%s (%s)\n", r.Company.Name, r.Company.CUIT)
	fmt.Fprintf(w, "Cierre %s, cierre anterior %s\n", r.Closing, r.PriorClosing)
	fmt.Fprintf(w, "Bienes: %d (con error de índice: %d)\n", t.AssetCount, t.FailedCount)
	fmt.Fprintf(w, "Valor de origen:        %s\n", domain.FormatArgentine(t.OriginalValue, 2))
	fmt.Fprintf(w, "Amortización ejercicio: %s\n", domain.FormatArgentine(t.PeriodDepreciation, 2))
	fmt.Fprintf(w, "Valor residual:         %s\n", domain.FormatArgentine(t.ResidualValue, 2))
	fmt.Fprintf(w, "Valor reexpresado:      %s\n", domain.FormatArgentine(t.RestatedValue, 2))
	fmt.Fprintf(w, "Residual reexpresado:   %s\n", domain.FormatArgentine(t.RestatedResidual, 2))
	if len(r.MissingDates) > 0 {
		fmt.Fprintf(w, "Índices faltantes: %v\n", r.MissingDates)
	}
}
