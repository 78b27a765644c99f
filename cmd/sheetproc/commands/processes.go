package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewProcessesCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "processes",
		Short: "Manage the processes sheet named by procesos_sheet_url",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print every process number",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				h, err := opts.Handler(cmd.Context())
				if err != nil {
					return err
				}
				numbers, err := h.GetAllProcessNumbers(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), numbers)
			},
		},
		&cobra.Command{
			Use:   "deactivate",
			Short: "Switch every active process to inactive",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				h, err := opts.Handler(cmd.Context())
				if err != nil {
					return err
				}
				count, err := h.DeactivateAllProcesses(cmd.Context())
				if err != nil && count > 0 {
					return fmt.Errorf("deactivated %d processes before failing: %w", count, err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deactivated %d processes\n", count)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <value>...",
			Short: "Append a process row",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				h, err := opts.Handler(cmd.Context())
				if err != nil {
					return err
				}
				if err := h.AddNewProcess(cmd.Context(), toValues(args)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Process added")
				return nil
			},
		},
	)

	return cmd
}
