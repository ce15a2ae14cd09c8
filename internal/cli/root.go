// Package cli implements fridgectl, a terminal client for the fridge journal API.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fdg312/fridge-journal/internal/apiclient"
	"github.com/fdg312/fridge-journal/internal/logging"
)

const (
	defaultAPIURL = "http://localhost:8080"

	outputTable = "table"
	outputJSON  = "json"
)

// app carries the state shared by subcommands once flags are parsed.
type app struct {
	apiURL    string
	tokenFile string
	output    string
	debug     bool

	logger zerolog.Logger
	client *apiclient.Client
}

// NewRootCmd builds the fridgectl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "fridgectl",
		Short:         "Fridge journal command line client",
		Long:          "fridgectl talks to a fridge journal API: sign in, inspect the fridge, read a journal day and compute nutrients offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		Example: `  # Sign in with a password account
  fridgectl login --username alice --password 'correct horse'

  # Items below their threshold
  fridgectl fridge list --below-threshold

  # Today's meals and totals
  fridgectl journal day

  # 150 g of a product with 13 g protein per 100 g
  fridgectl nutrients calc --amount 150 --unit g --ref-amount 100 --ref-unit g --protein 13`,
	}

	cmd.PersistentFlags().StringVar(&a.apiURL, "api-url", envOr("FRIDGECTL_API_URL", defaultAPIURL), "API base URL")
	cmd.PersistentFlags().StringVar(&a.tokenFile, "token-file", os.Getenv("FRIDGECTL_TOKEN_FILE"), "session file (default: user config dir)")
	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", outputTable, "output format: table|json")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newFridgeCmd(a),
		newJournalCmd(a),
		newNutrientsCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.output != outputTable && a.output != outputJSON {
		return fmt.Errorf("unknown output format %q (allowed: table, json)", a.output)
	}

	level := "warn"
	if a.debug {
		level = "debug"
	}
	a.logger = logging.Component(logging.New(logging.Config{
		Level:  level,
		Format: logging.FormatConsole,
		Out:    cmd.ErrOrStderr(),
	}), "cli")

	path := a.tokenFile
	if path == "" {
		p, err := apiclient.DefaultTokenPath()
		if err != nil {
			return err
		}
		path = p
	}

	a.client = apiclient.New(a.apiURL, apiclient.NewFileTokenStore(path), apiclient.WithLogger(a.logger))
	cmd.SetContext(a.logger.WithContext(cmd.Context()))
	a.logger.Debug().Str("command", cmd.CommandPath()).Str("api_url", a.apiURL).Msg("command started")
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
