package main

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fincal/internal/fiscal"
)

var periodCodePattern = regexp.MustCompile(`^\d{6}$`)

type resolution struct {
	Input  string        `json:"input"`
	Period fiscal.Period `json:"period"`
}

// resolveInputs classifies each input: six digits are a YYYYMM period code,
// anything else is parsed as a date.
func resolveInputs(r *fiscal.Resolver, inputs []string) []resolution {
	out := make([]resolution, len(inputs))
	for i, in := range inputs {
		out[i].Input = in
		if periodCodePattern.MatchString(in) {
			out[i].Period = r.ResolveFromEncodedPeriod(in)
			continue
		}
		if d, err := fiscal.ParseAny(in); err == nil {
			out[i].Period = r.Resolve(d)
		}
	}
	return out
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <date|YYYYMM>...",
	Short: "Resolve dates or period codes to financial periods",
	Long:  "Prints the financial year, month, quarter and period bounds for each date (YYYY-MM-DD, DD/MM/YYYY, RFC3339, Excel serial) or YYYYMM period code.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		results := resolveInputs(fiscal.NewResolver(), args)

		switch format {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range results {
				if err := enc.Encode(r); err != nil {
					return eris.Wrap(err, "resolve: encode")
				}
			}
		case "table":
			formatResolutions(cmd.OutOrStdout(), results)
		default:
			return eris.Errorf("resolve: unknown format %q", format)
		}
		return nil
	},
}

func formatResolutions(w io.Writer, results []resolution) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tPERIOD\tFY\tFM\tFQ\tSTART\tEND")
	for _, r := range results {
		p := r.Period
		if p.IsUnknown() {
			fmt.Fprintf(tw, "%s\tunknown\t-\t-\t-\t-\t-\n", r.Input)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\tQ%d\t%s\t%s\n",
			r.Input, p.Code(), p.FinancialYear, p.FinancialMonth, p.FinancialQuarter, p.PeriodStart, p.PeriodEnd)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	resolveCmd.Flags().String("format", "table", "output format: table or json")
	rootCmd.AddCommand(resolveCmd)
}
