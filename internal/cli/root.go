// Package cli implements checkoutctl, an offline front end to the checkout
// engine for quoting and validating order files.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wms-platform/checkout-service/internal/application"
	"github.com/wms-platform/checkout-service/internal/bootstrap"
	"github.com/wms-platform/checkout-service/internal/config"
	"github.com/wms-platform/checkout-service/pkg/logging"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "checkoutctl",
		Short:         "Quote delivery fees and validate orders",
		Long:          "checkoutctl runs the checkout fee strategies and order validator against order files without a server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("config", "", "Path to a checkout YAML config (defaults to $"+config.EnvConfigPath+")")

	cmd.AddCommand(newQuoteCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the checkoutctl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "checkoutctl %s\n", version)
		},
	}
}

func loadEngine(cmd *cobra.Command) (*bootstrap.Engine, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(cfg, nil, nil, logging.Discard()), nil
}

// readOrder decodes an order file; "-" reads standard input
func readOrder(cmd *cobra.Command, path string) (*application.OrderDTO, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening order file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var order application.OrderDTO
	if err := json.NewDecoder(r).Decode(&order); err != nil {
		return nil, fmt.Errorf("decoding order %s: %w", path, err)
	}
	return &order, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
