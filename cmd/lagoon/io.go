package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lagoon-df/lagoon"
	log "github.com/sirupsen/logrus"
)

// readFrame loads a DataFrame from a file, picking the format from the
// file extension. Supported: .csv, .json, .parquet.
func readFrame(path string) (*lagoon.DataFrame, error) {
	log.Debugf("reading %s", path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return lagoon.ReadCSV(path)
	case ".json":
		return lagoon.ReadJSON(path)
	case ".parquet":
		return lagoon.ReadParquet(path)
	default:
		return nil, fmt.Errorf("unsupported input format for %s (want .csv, .json or .parquet)", path)
	}
}

// writeFrame writes a DataFrame to the path given by the --output flag,
// or renders it to stdout when the flag is empty.
func writeFrame(df *lagoon.DataFrame, path string) error {
	if path == "" {
		fmt.Println(df)
		return nil
	}
	log.Debugf("writing %d rows to %s", df.Height(), path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return df.WriteCSV(path)
	case ".json":
		return df.WriteJSON(path)
	case ".parquet":
		return df.WriteParquet(path)
	default:
		return fmt.Errorf("unsupported output format for %s (want .csv, .json or .parquet)", path)
	}
}

// splitList parses a comma separated flag value into trimmed names.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %s\n", err)
	os.Exit(1)
}
