package commands

import (
	"github.com/ideamans/go-sheetproc"
	"github.com/spf13/cobra"
)

func NewRecordsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "records [address]",
		Short: "Print every data row of the first worksheet",
		Long: `Print every data row of the first worksheet as JSON, keyed by the
header row. Without an address the configured processes sheet is read.`,
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

			records, err := h.GetRecords(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
}

func NewHeadersCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "headers [address]",
		Short: "Print the header row of the first worksheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.Handler(cmd.Context())
			if err != nil {
				return err
			}
			addr, err := address(h, args)
			if err != nil {
				return err
			}

			headers, err := h.GetHeaders(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), headers)
		},
	}
}

func NewQueryCommand(opts *Options) *cobra.Command {
	var (
		where  []string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "query [address]",
		Short: "Print the rows matching every --where condition",
		Long: `Print the rows matching every --where condition.

Examples:
  # Active processes above a budget
  sheetproc query --where activo==SI --where "cuantia>=1000000"

  # Second page of ten rows
  sheetproc query https://docs.google.com/spreadsheets/d/<id>/edit --limit 10 --offset 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := sheetproc.Query{Limit: limit, Offset: offset}
			for _, expr := range where {
				cond, err := sheetproc.ParseCondition(expr)
				if err != nil {
					return err
				}
				query.Conditions = append(query.Conditions, cond)
			}

			h, err := opts.Handler(cmd.Context())
			if err != nil {
				return err
			}
			addr, err := address(h, args)
			if err != nil {
				return err
			}

			records, err := h.QueryRecords(cmd.Context(), addr, query)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().StringArrayVar(&where, "where", nil, "Condition such as activo==SI or cuantia>100 (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of matching rows to skip")

	return cmd
}
