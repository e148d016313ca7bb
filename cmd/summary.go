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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

// summaryReport is the structured form of the summary output.
type summaryReport struct {
	Source              string `json:"source" yaml:"source"`
	pipeline.Result     `yaml:",inline"`
	MeanPopularityLabel string `json:"mean_popularity_label" yaml:"mean_popularity_label"`
}

var summaryCmd = &cobra.Command{
	Use:   "summary [year] [year]",
	Short: "Summarizes the tracks released in a year range",
	Long: `Prints the track count, mean popularity, most frequent artist, the top
10 artists and the decade distribution of the selected tracks.
  Year arguments are 'yyyy' for a single year or two years for an inclusive
  range. Without years, 1990 to 2020 is used, clamped to the data.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		err := summary(cmd, os.Stdout, args, format)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	addFilterFlags(summaryCmd)
	summaryCmd.Flags().StringP("format", "f", "text", "Output format: text, yaml or json")
}

func summary(cmd *cobra.Command, w io.Writer, args []string, format string) error {
	t, err := loadTable(cmd.Context())
	if err != nil {
		return err
	}
	f, err := filterFromArgs(t, args, artistFlag(cmd))
	if err != nil {
		return err
	}
	return writeSummary(w, t, f, format)
}

// writeSummary runs the pipeline and writes the result. An empty selection
// is reported as a notice rather than an error.
func writeSummary(w io.Writer, t *dataset.Table, f pipeline.Filter, format string) error {
	r, err := pipeline.Apply(t, f)
	if errors.Is(err, pipeline.ErrNoRowsMatched) {
		fmt.Fprintf(w, "No tracks match the selected filters (%d to %d). Try widening the year range or clearing the artist selection.\n", f.MinYear, f.MaxYear)
		return nil
	}
	if err != nil {
		return err
	}

	report := summaryReport{Source: t.Source(), Result: *r, MeanPopularityLabel: r.MeanPopularityLabel()}
	switch format {
	case "text":
		for _, a := range resultAnalyses(r) {
			fmt.Fprintln(w, a)
		}
		return nil

	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		return encoder.Close()

	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		return nil
	}
	return fmt.Errorf("Invalid format: %q", format)
}
