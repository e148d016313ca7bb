/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/export"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export [year] [year]",
	Short: "Writes the matching tracks to a CSV or XLSX file",
	Long: `Writes the matching tracks in grid column order. The format follows the
--output extension unless --format is given. XLSX workbooks also carry a
Summary sheet with the metrics and chart tables.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")
		err := exportTracks(cmd, args, output, format)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	addFilterFlags(exportCmd)
	exportCmd.Flags().StringP("output", "o", "tracks.xlsx", "File to write")
	exportCmd.Flags().String("format", "", "csv or xlsx (default from the --output extension)")
}

func exportTracks(cmd *cobra.Command, args []string, output, format string) error {
	f, err := exportFormat(output, format)
	if err != nil {
		return err
	}
	t, err := loadTable(cmd.Context())
	if err != nil {
		return err
	}
	filter, err := filterFromArgs(t, args, artistFlag(cmd))
	if err != nil {
		return err
	}
	n, err := writeExport(t, filter, f, output)
	if err != nil {
		return err
	}
	if n > 0 {
		fmt.Printf("Wrote %d tracks to %s\n", n, output)
	}
	return nil
}

func exportFormat(output, format string) (export.Format, error) {
	if format == "" {
		format = filepath.Ext(output)
	}
	return export.ParseFormat(format)
}

// writeExport returns the number of tracks written.
func writeExport(t *dataset.Table, filter pipeline.Filter, f export.Format, output string) (int, error) {
	r, err := pipeline.Apply(t, filter)
	if errors.Is(err, pipeline.ErrNoRowsMatched) {
		fmt.Println("No tracks match the selected filters; nothing written.")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	cols := pipeline.GridColumns(t)
	err = writeFile(output, func(w io.Writer) error {
		return export.Write(w, f, cols, r)
	})
	if err != nil {
		return 0, err
	}
	return r.Count, nil
}
