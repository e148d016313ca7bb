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
	"go.uber.org/zap"

	"github.com/ademuri/track-dashboard/internal/charts"
	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

var chartCmd = &cobra.Command{
	Use:   "chart [year] [year]",
	Short: "Writes the top artists and decade charts as PNG files",
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("out_dir")
		err := chart(cmd, args, dir)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)

	addFilterFlags(chartCmd)
	chartCmd.Flags().StringP("out_dir", "o", ".", "Directory to write top-artists.png and decades.png to")
}

func chart(cmd *cobra.Command, args []string, dir string) error {
	t, err := loadTable(cmd.Context())
	if err != nil {
		return err
	}
	f, err := filterFromArgs(t, args, artistFlag(cmd))
	if err != nil {
		return err
	}
	written, err := writeCharts(t, f, dir)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Println("Wrote", path)
	}
	return nil
}

// writeCharts renders both charts into dir and returns the files written.
func writeCharts(t *dataset.Table, f pipeline.Filter, dir string) ([]string, error) {
	r, err := pipeline.Apply(t, f)
	if errors.Is(err, pipeline.ErrNoRowsMatched) {
		fmt.Println("No tracks match the selected filters.")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	renders := []struct {
		name string
		draw func(io.Writer) error
	}{
		{"top-artists.png", func(w io.Writer) error { return charts.TopArtists(w, r.TopArtists) }},
		{"decades.png", func(w io.Writer) error { return charts.Decades(w, r.Decades) }},
	}

	var written []string
	for _, render := range renders {
		path := filepath.Join(dir, render.name)
		err := writeFile(path, render.draw)
		if errors.Is(err, charts.ErrNoData) {
			logger.Info("skipping empty chart", zap.String("chart", render.name))
			continue
		}
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// writeFile creates path and fills it with write, removing it again on
// failure.
func writeFile(path string, write func(io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
