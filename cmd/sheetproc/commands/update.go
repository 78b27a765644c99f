package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewUpdateCommand(opts *Options) *cobra.Command {
	var (
		idColumn string
		idValue  string
		column   string
		value    string
	)

	cmd := &cobra.Command{
		Use:   "update [address]",
		Short: "Set one cell in the row identified by --id-column and --id-value",
		Long: `Set one cell in the row identified by --id-column and --id-value.

When several rows hold the identifier, the topmost one is updated.

Examples:
  sheetproc update --id-column numero_proceso --id-value SIP-046-2025 \
    --column objeto_proceso --value "Nuevo objeto"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.Handler(cmd.Context())
			if err != nil {
				return err
			}
			addr, err := address(h, args)
			if err != nil {
				return err
			}

			if err := h.UpdateRecord(cmd.Context(), addr, idColumn, idValue, column, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s where %s = %s\n", column, idColumn, idValue)
			return nil
		},
	}

	cmd.Flags().StringVar(&idColumn, "id-column", "", "Header of the identifier column")
	cmd.Flags().StringVar(&idValue, "id-value", "", "Identifier of the row to update")
	cmd.Flags().StringVar(&column, "column", "", "Header of the column to update")
	cmd.Flags().StringVar(&value, "value", "", "New cell value, parsed as if typed in the sheet")
	_ = cmd.MarkFlagRequired("id-column")
	_ = cmd.MarkFlagRequired("id-value")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

func NewAppendCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "append <address> <value>...",
		Short: "Append a row to the first worksheet",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.Handler(cmd.Context())
			if err != nil {
				return err
			}

			if err := h.AppendRow(cmd.Context(), args[0], toValues(args[1:])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appended %d values\n", len(args)-1)
			return nil
		},
	}
}
