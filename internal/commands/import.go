package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jask/expensetracker/internal/report"
	"github.com/jask/expensetracker/internal/service"
)

func newImportCommand() *cobra.Command {
	var account string
	var format string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a CSV or XLSX statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open statement: %w", err)
			}
			defer f.Close()

			name := filepath.Base(args[0])
			res, err := a.ingest.Ingest(cmd.Context(), service.Request{
				Filename: name,
				Body:     f,
				Account:  account,
				Format:   format,
			})
			fmt.Fprint(cmd.OutOrStdout(), report.Render(name, res))
			if err != nil {
				return err
			}
			if total, cerr := a.maintenance.Count(cmd.Context()); cerr == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%d expenses stored\n", total)
			} else {
				a.log.Warn().Err(cerr).Msg("count expenses")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account label (defaults to the format's account)")
	cmd.Flags().StringVar(&format, "format", "", "statement format name (detected from the header when empty)")

	return cmd
}
