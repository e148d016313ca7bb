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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ademuri/track-dashboard/internal/pipeline"
)

var artistsCmd = &cobra.Command{
	Use:   "artists",
	Short: "Lists the most frequent artists of the whole dataset",
	Long: `Lists the artists that may be used with --artist, most frequent first.
The list ignores any year range.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		n, _ := cmd.Flags().GetInt("num")
		err := listArtists(cmd, n)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(artistsCmd)

	artistsCmd.Flags().IntP("num", "n", pipeline.ArtistOptionsLimit, "Number of artists to list")
}

func listArtists(cmd *cobra.Command, n int) error {
	if n < 1 {
		return fmt.Errorf("--num must be positive, got %d", n)
	}
	t, err := loadTable(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Print(artistsAnalysis(pipeline.ArtistOptions(t, n)))
	return nil
}
