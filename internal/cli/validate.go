package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wms-platform/checkout-service/internal/application"
)

func newValidateCmd() *cobra.Command {
	var (
		file        string
		mode        string
		expectedFee string
		detail      bool
		jsonFlag    bool
	)

	cmd := &cobra.Command{
		Use:   "validate -f <order.json>",
		Short: "Validate an order and print its report",
		Long:  "Validate an order file. Exits non-zero when the order has blocking issues.",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine(cmd)
			if err != nil {
				return err
			}
			order, err := readOrder(cmd, file)
			if err != nil {
				return err
			}

			validateCmd := application.ValidateOrderCommand{Order: order, ShippingMode: mode}
			if expectedFee != "" {
				fee, err := decimal.NewFromString(expectedFee)
				if err != nil {
					return fmt.Errorf("invalid --expected-fee %q: %w", expectedFee, err)
				}
				validateCmd.ExpectedFee = &fee
			}

			report, err := engine.Service.ValidateOrder(cmd.Context(), validateCmd)
			if err != nil {
				return fmt.Errorf("validate failed: %w", err)
			}
			view := report.View(detail)

			if jsonFlag {
				if err := writeJSON(cmd.OutOrStdout(), view); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderReport(view))
			}

			if !view.Valid {
				return fmt.Errorf("order %s is invalid: %d issue(s), highest %s", view.OrderID, view.Statistics.TotalIssues, view.Severity)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Order JSON file, - for stdin")
	cmd.Flags().StringVar(&mode, "mode", "", "Quote the expected fee with this shipping mode")
	cmd.Flags().StringVar(&expectedFee, "expected-fee", "", "Expected delivery fee to check the order against")
	cmd.Flags().BoolVar(&detail, "detail", false, "Include every issue in the report")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")

	return cmd
}
