package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/bienes/internal/config"
	"github.com/mtlprog/bienes/internal/csvio"
	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/store"
)

func closingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "closing", Usage: "current closing date DD/MM/YYYY (default: company profile)"},
		&cli.StringFlag{Name: "prior", Usage: "prior closing date DD/MM/YYYY (default: company profile)"},
	}
}

func openStore(c *cli.Context, cfg config.Config) (store.Repository, error) {
	repo, err := store.Open(c.Context, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return repo, nil
}

// openCompany opens the store and loads the company selected by --cuit.
func openCompany(c *cli.Context, cfg config.Config) (store.Repository, domain.Company, error) {
	cuit := domain.NormalizeCUIT(c.String("cuit"))
	if cuit == "" {
		return nil, domain.Company{}, cli.Exit("--cuit or COMPANY_CUIT is required", 1)
	}

	repo, err := openStore(c, cfg)
	if err != nil {
		return nil, domain.Company{}, err
	}
	company, err := repo.GetCompany(c.Context, cuit)
	if err != nil {
		repo.Close()
		return nil, domain.Company{}, fmt.Errorf("loading company %s: %w", cuit, err)
	}
	return repo, company, nil
}

func requireArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", cli.Exit(fmt.Sprintf("usage: %s %s", c.Command.HelpName, c.Command.ArgsUsage), 1)
	}
	return c.Args().First(), nil
}

func parseMode(s string) (csvio.Mode, error) {
	switch strings.ToLower(s) {
	case "", "base":
		return csvio.ModeBase, nil
	case "historical", "historico":
		return csvio.ModeHistorical, nil
	case "adjusted", "ajustado":
		return csvio.ModeAdjusted, nil
	default:
		return 0, fmt.Errorf("unknown export mode %q", s)
	}
}

// writeFile creates path and hands it to fn, reporting the first error of either.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

// redactURL hides the password of a database URL for logging.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
