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

	"github.com/spf13/cobra"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

var tracksCmd = &cobra.Command{
	Use:   "tracks [year] [year]",
	Short: "Prints the tracks that match the filters",
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		err := printTracks(cmd, args, limit, offset)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(tracksCmd)

	addFilterFlags(tracksCmd)
	tracksCmd.Flags().Int("limit", 50, "Maximum number of tracks to print, 0 for all")
	tracksCmd.Flags().Int("offset", 0, "Number of matching tracks to skip")
}

func printTracks(cmd *cobra.Command, args []string, limit, offset int) error {
	t, err := loadTable(cmd.Context())
	if err != nil {
		return err
	}
	f, err := filterFromArgs(t, args, artistFlag(cmd))
	if err != nil {
		return err
	}
	return writeTracks(os.Stdout, t, f, limit, offset)
}

func writeTracks(w io.Writer, t *dataset.Table, f pipeline.Filter, limit, offset int) error {
	if limit < 0 || offset < 0 {
		return fmt.Errorf("--limit and --offset must not be negative")
	}
	r, err := pipeline.Apply(t, f)
	if errors.Is(err, pipeline.ErrNoRowsMatched) {
		fmt.Fprintln(w, "No tracks match the selected filters.")
		return nil
	}
	if err != nil {
		return err
	}
	page := pipeline.Page(r.Rows, offset, limit)
	fmt.Fprint(w, tracksAnalysis(pipeline.GridColumns(t), page, offset, r.Count))
	return nil
}
