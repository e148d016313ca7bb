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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/track-dashboard/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the dashboard API and charts over HTTP",
	Long: `Serves JSON endpoints under /api, PNG charts under /charts, Prometheus
metrics on /metrics and a health check on /healthz. The source is loaded on
the first request and kept in memory until POST /api/cache/clear.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := serve(cmd.Context())
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))

	serveCmd.Flags().Float64("rate_limit", 20, "Requests per second across all clients, 0 to disable")
	viper.BindPFlag("rate_limit", serveCmd.Flags().Lookup("rate_limit"))

	serveCmd.Flags().Int("burst", 40, "Requests allowed in a burst above the rate limit")
	viper.BindPFlag("burst", serveCmd.Flags().Lookup("burst"))
}

func serve(ctx context.Context) error {
	source, err := requireSource()
	if err != nil {
		return err
	}
	cache, closeCache, err := newCache()
	if err != nil {
		return err
	}
	defer closeCache()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the cache so a bad source fails at startup instead of on the
	// first request.
	if t, err := cache.Get(ctx, source); err != nil {
		logger.Warn("initial load failed, will retry on request", zap.Error(err))
	} else {
		printWarnings(os.Stderr, t)
	}

	srv := server.New(cache, source,
		server.WithLogger(logger),
		server.WithRateLimit(viper.GetFloat64("rate_limit"), viper.GetInt("burst")))
	return srv.ListenAndServe(ctx, viper.GetString("addr"))
}
