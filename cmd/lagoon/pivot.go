package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lagoon-df/lagoon"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var pivotCmd = &cobra.Command{
	Use:   "pivot [flags] input_file",
	Short: "spread a long table into wide form.",
	Long: `Spread a long table wide: one output row per distinct index tuple, one
output column per distinct value of the key column. For example:

  lagoon pivot sales.csv --index region --column quarter --values revenue`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)

		index, _ := cmd.Flags().GetString("index")
		column, _ := cmd.Flags().GetString("column")
		values, _ := cmd.Flags().GetString("values")
		fill, _ := cmd.Flags().GetString("fill")
		onDup, _ := cmd.Flags().GetString("on-duplicate")
		output, _ := cmd.Flags().GetString("output")

		opts := lagoon.PivotOptions{
			Index:       splitList(index),
			Column:      column,
			Values:      values,
			Fill:        parseFill(fill),
			OnDuplicate: lagoon.DuplicateFail,
		}
		switch strings.ToLower(onDup) {
		case "", "fail":
		case "last":
			opts.OnDuplicate = lagoon.DuplicateLast
		default:
			fail(fmt.Errorf("unknown duplicate policy %q (want fail or last)", onDup))
		}

		df, err := readFrame(args[0])
		if err != nil {
			fail(err)
		}
		log.Debugf("loaded %d rows, %d columns", df.Height(), df.Width())

		result, err := df.Pivot(opts)
		if err != nil {
			fail(err)
		}

		if err := writeFrame(result, output); err != nil {
			fail(err)
		}
	},
}

// parseFill interprets the --fill flag as int, float, bool or string, in
// that order. An empty flag means no fill.
func parseFill(value string) interface{} {
	if value == "" {
		return nil
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

func init() {
	rootCmd.AddCommand(pivotCmd)
	pivotCmd.Flags().String("index", "", "comma separated columns identifying an output row")
	pivotCmd.Flags().String("column", "", "column whose distinct values become output columns")
	pivotCmd.Flags().String("values", "", "column supplying cell values")
	pivotCmd.Flags().String("fill", "", "value placed in cells with no matching input row")
	pivotCmd.Flags().String("on-duplicate", "fail", "duplicate cell policy: fail or last")
}
