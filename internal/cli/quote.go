package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wms-platform/checkout-service/internal/application"
)

func newQuoteCmd() *cobra.Command {
	var (
		file     string
		mode     string
		jsonFlag bool
	)

	cmd := &cobra.Command{
		Use:   "quote -f <order.json>",
		Short: "Quote the delivery fee of an order",
		Long:  "Quote the delivery fee of an order file with the STANDARD, VOLUMETRIC or RUSH strategy. Without --mode, rush deliveries are quoted as RUSH.",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine(cmd)
			if err != nil {
				return err
			}
			order, err := readOrder(cmd, file)
			if err != nil {
				return err
			}

			quote, err := engine.Service.QuoteShipping(cmd.Context(), application.QuoteShippingCommand{
				OrderID:  order.ID,
				Mode:     mode,
				Lines:    order.Lines,
				Delivery: order.Delivery,
			})
			if err != nil {
				return fmt.Errorf("quote failed: %w", err)
			}

			if jsonFlag {
				return writeJSON(cmd.OutOrStdout(), quote)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderQuote(quote))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Order JSON file, - for stdin")
	cmd.Flags().StringVar(&mode, "mode", "", "Shipping mode: standard, volumetric or rush")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")

	return cmd
}
