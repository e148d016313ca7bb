/*
Copyright 2026 Google LLC

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
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/track-dashboard/internal/store"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manages normalized snapshots in the snapshot database",
	Long: `Snapshots let later runs skip fetching and parsing the source. They are
used automatically by every command when --snapshot_db is set.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if viper.GetString("snapshot_db") == "" {
			return fmt.Errorf("required flag(s) \"snapshot_db\" not set")
		}
		return nil
	},
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Loads the source and stores its normalized table",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		source, err := requireSource()
		if err == nil {
			err = saveSnapshot(cmd.Context(), os.Stdout, viper.GetString("snapshot_db"), source)
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists stored snapshots",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := listSnapshots(os.Stdout, viper.GetString("snapshot_db"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <source>",
	Short: "Deletes the snapshot of a source",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := deleteSnapshot(os.Stdout, viper.GetString("snapshot_db"), args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotSaveCmd, snapshotListCmd, snapshotDeleteCmd)
}

// saveSnapshot always reloads the source, replacing any stored snapshot.
func saveSnapshot(ctx context.Context, w io.Writer, dbPath string, source string) error {
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	t, err := newLoader().Load(ctx, source)
	if err != nil {
		return err
	}
	printWarnings(w, t)

	if err := db.SaveTable(t); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	stats := t.Stats()
	fmt.Fprintf(w, "Saved %d tracks from %q (%d rows read, %d dropped)\n", t.Len(), source, stats.Read, stats.Dropped())
	return nil
}

func listSnapshots(w io.Writer, dbPath string) error {
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	infos, err := db.ListSnapshots()
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSCHEMA\tTRACKS\tLOADED\tDIGEST")
	for _, info := range infos {
		digest := info.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", info.Source, info.Schema, info.Rows, info.LoadedAt.Local().Format("2006-01-02 15:04"), digest)
	}
	return tw.Flush()
}

func deleteSnapshot(w io.Writer, dbPath string, source string) error {
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	deleted, err := db.DeleteSnapshot(source)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if !deleted {
		return fmt.Errorf("no snapshot found for %q", source)
	}

	fmt.Fprintf(w, "Deleted snapshot of %q\n", source)
	return nil
}
