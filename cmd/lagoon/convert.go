package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] input_file output_file",
	Short: "convert a table between CSV, JSON and Parquet.",
	Long: `Read a table in one format and write it in another, picking both formats
from the file extensions. For example:

  lagoon convert events.csv events.parquet`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)

		head, _ := cmd.Flags().GetInt("head")

		df, err := readFrame(args[0])
		if err != nil {
			fail(err)
		}
		log.Debugf("loaded %d rows, %d columns", df.Height(), df.Width())

		if head > 0 {
			df = df.Head(head)
		}

		if err := writeFrame(df, args[1]); err != nil {
			fail(err)
		}
		fmt.Printf("wrote %d rows to %s\n", df.Height(), args[1])
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().Int("head", 0, "keep only the first N rows (0 keeps all)")
}
