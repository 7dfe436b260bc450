package main

import (
	"github.com/lagoon-df/lagoon"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var meltCmd = &cobra.Command{
	Use:   "melt [flags] input_file",
	Short: "unpivot a wide table into long form.",
	Long: `Unpivot a wide table into (variable, value) pairs, repeating the id
columns onto every output row. For example:

  lagoon melt wide.csv --id-vars region --value-vars q1,q2,q3`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)

		idVars, _ := cmd.Flags().GetString("id-vars")
		valueVars, _ := cmd.Flags().GetString("value-vars")
		varName, _ := cmd.Flags().GetString("var-name")
		valueName, _ := cmd.Flags().GetString("value-name")
		output, _ := cmd.Flags().GetString("output")

		df, err := readFrame(args[0])
		if err != nil {
			fail(err)
		}
		log.Debugf("loaded %d rows, %d columns", df.Height(), df.Width())

		result, err := df.Melt(lagoon.MeltOptions{
			IDVars:    splitList(idVars),
			ValueVars: splitList(valueVars),
			VarName:   varName,
			ValueName: valueName,
		})
		if err != nil {
			fail(err)
		}

		if err := writeFrame(result, output); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(meltCmd)
	meltCmd.Flags().String("id-vars", "", "comma separated columns repeated onto every output row")
	meltCmd.Flags().String("value-vars", "", "comma separated columns to unpivot (empty takes all non-id columns)")
	meltCmd.Flags().String("var-name", "", "name for the source column name column (default \"variable\")")
	meltCmd.Flags().String("value-name", "", "name for the values column (default \"value\")")
}
