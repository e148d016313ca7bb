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
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/store"
)

var cfgFile string

// logger is replaced in PersistentPreRunE; tests use the no-op logger.
var logger = zap.NewNop()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "track-dashboard",
	Short: "Explores a music track dataset",
	Long: `Loads a CSV export of music tracks from a file or URL, filters it by
release year and artist, and reports popularity, top artists and the
decade distribution as tables, charts, spreadsheets or an HTTP API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetBool("verbose"))
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.track-dashboard.yaml)")

	rootCmd.PersistentFlags().StringP("source", "s", "", "Path or http(s) URL of the track CSV")
	viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source"))

	rootCmd.PersistentFlags().String("snapshot_db", "", "Path to a SQLite database of normalized snapshots (disabled when empty)")
	viper.BindPFlag("snapshot_db", rootCmd.PersistentFlags().Lookup("snapshot_db"))

	rootCmd.PersistentFlags().Uint("fetch_retries", 1, "Attempts made when fetching a URL source")
	viper.BindPFlag("fetch_retries", rootCmd.PersistentFlags().Lookup("fetch_retries"))

	rootCmd.PersistentFlags().Duration("fetch_timeout", 60*time.Second, "Timeout for fetching a URL source")
	viper.BindPFlag("fetch_timeout", rootCmd.PersistentFlags().Lookup("fetch_timeout"))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.PersistentFlags().String("from", "", "From email address")
	viper.BindPFlag("from", rootCmd.PersistentFlags().Lookup("from"))

	rootCmd.PersistentFlags().String("sendgrid_api_key", "", "SendGrid API key used by the email command")
	viper.BindPFlag("sendgrid_api_key", rootCmd.PersistentFlags().Lookup("sendgrid_api_key"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".track-dashboard" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".track-dashboard")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// See https://github.com/spf13/viper/pull/852
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			rootCmd.Flags().Set(f.Name, viper.GetString(f.Name))
		}
	})
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func requireSource() (string, error) {
	source := viper.GetString("source")
	if source == "" {
		return "", fmt.Errorf("required flag(s) \"source\" not set")
	}
	return source, nil
}

func newLoader() *dataset.Loader {
	return dataset.NewLoader(viper.GetDuration("fetch_timeout"), viper.GetUint("fetch_retries"), logger)
}

// newCache builds the table cache, backed by the snapshot database when one
// is configured. The returned func releases the database.
func newCache() (*dataset.Cache, func(), error) {
	opts := []dataset.CacheOption{dataset.WithLogger(logger)}
	closer := func() {}

	if dbPath := viper.GetString("snapshot_db"); dbPath != "" {
		db, err := store.New(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening snapshot database: %w", err)
		}
		opts = append(opts, dataset.WithPersister(db))
		closer = func() { db.Close() }
	}

	return dataset.NewCache(newLoader(), opts...), closer, nil
}

// loadTable resolves the configured source through the cache and reports
// schema warnings on stderr.
func loadTable(ctx context.Context) (*dataset.Table, error) {
	source, err := requireSource()
	if err != nil {
		return nil, err
	}
	cache, closeCache, err := newCache()
	if err != nil {
		return nil, err
	}
	defer closeCache()

	t, err := cache.Get(ctx, source)
	if err != nil {
		return nil, err
	}
	printWarnings(os.Stderr, t)
	return t, nil
}

func printWarnings(w io.Writer, t *dataset.Table) {
	for _, sw := range t.Warnings() {
		fmt.Fprintf(w, "Warning: %v\n", sw)
	}
}
