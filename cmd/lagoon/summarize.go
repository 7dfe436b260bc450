package main

import (
	"fmt"
	"strings"

	"github.com/lagoon-df/lagoon"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [flags] input_file",
	Short: "group rows and compute aggregates.",
	Long: `Group rows by one or more key columns and compute per group aggregates.
Aggregations are given as kind:column pairs, for example:

  lagoon summarize sales.csv --by region --agg "sum:revenue,mean:units"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)

		by, _ := cmd.Flags().GetString("by")
		aggs, _ := cmd.Flags().GetString("agg")
		propagate, _ := cmd.Flags().GetBool("propagate-nulls")
		output, _ := cmd.Flags().GetString("output")

		keys := splitList(by)
		if len(keys) == 0 {
			fail(fmt.Errorf("at least one --by column is required"))
		}
		specs, err := parseAggSpecs(aggs, propagate)
		if err != nil {
			fail(err)
		}

		df, err := readFrame(args[0])
		if err != nil {
			fail(err)
		}
		log.Debugf("loaded %d rows, %d columns", df.Height(), df.Width())

		gb, err := df.GroupBy(keys...)
		if err != nil {
			fail(err)
		}

		var result *lagoon.DataFrame
		if len(specs) == 0 {
			result, err = gb.Count()
		} else {
			result, err = gb.Agg(specs...)
		}
		if err != nil {
			fail(err)
		}
		log.Debugf("%d groups", result.Height())

		if err := writeFrame(result, output); err != nil {
			fail(err)
		}
	},
}

// parseAggSpecs parses "kind:column" pairs, for example "sum:revenue".
// An empty string yields no specs, which falls back to group counting.
func parseAggSpecs(value string, propagate bool) ([]lagoon.AggSpec, error) {
	var specs []lagoon.AggSpec
	for _, item := range splitList(value) {
		kind, column, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("malformed aggregation %q (want kind:column)", item)
		}
		var spec lagoon.AggSpec
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "sum":
			spec = lagoon.AggSum(column)
		case "mean", "avg":
			spec = lagoon.AggMean(column)
		case "min":
			spec = lagoon.AggMin(column)
		case "max":
			spec = lagoon.AggMax(column)
		case "count":
			spec = lagoon.AggCount(column)
		case "first":
			spec = lagoon.AggFirst(column)
		case "last":
			spec = lagoon.AggLast(column)
		default:
			return nil, fmt.Errorf("unknown aggregation kind %q", kind)
		}
		if propagate {
			spec = spec.Propagate()
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().String("by", "", "comma separated key columns")
	summarizeCmd.Flags().String("agg", "", "comma separated kind:column aggregations (empty counts group sizes)")
	summarizeCmd.Flags().Bool("propagate-nulls", false, "a null input makes the whole aggregate null")
}
