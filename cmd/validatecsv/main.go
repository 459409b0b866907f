// Command validatecsv checks a scraper CSV export and exits 0 when it has no
// critical issues, 2 otherwise.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"gmaps-scraper/services"
	"gmaps-scraper/utils"
)

const exitCritical = 2

var errCritical = eris.New("critical issues found")

func newRootCmd() *cobra.Command {
	var (
		file   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:           "validatecsv",
		Short:         "Validate a scraper CSV export",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := utils.NewLogger()
			defer logger.Sync()

			passed, err := validate(cmd.OutOrStdout(), services.NewValidator(logger), file, asJSON)
			if err != nil {
				return err
			}
			if !passed {
				return errCritical
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "results.csv", "CSV file to validate")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// validate prints the report for path and reports whether it passed.
func validate(w io.Writer, v *services.Validator, path string, asJSON bool) (bool, error) {
	report := v.Validate(path)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return false, eris.Wrap(err, "encode report")
		}
	} else {
		v.Print(w, report)
	}
	return report.Passed(), nil
}

func main() {
	err := newRootCmd().Execute()
	switch {
	case err == nil:
	case eris.Is(err, errCritical):
		os.Exit(exitCritical)
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
