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
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

type SendEmailConfig struct {
	From   string
	To     string
	APIKey string
	DryRun bool
	Filter pipeline.Filter
}

var emailCmd = &cobra.Command{
	Use:   "email <address> [year] [year]",
	Short: "Sends the summary as an email",
	Long: `Emails the metrics, top artists and decade distribution of the selected
tracks to <address> through SendGrid.
  Optional year arguments follow the address (e.g. '1995' or '1990 2000').`,
	Args: cobra.RangeArgs(1, 3),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("from") == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		t, err := loadTable(cmd.Context())
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		f, err := filterFromArgs(t, args[1:], artistFlag(cmd))
		if err != nil {
			fmt.Printf("Error parsing years: %v\n", err)
			os.Exit(1)
		}
		dryRun, _ := cmd.Flags().GetBool("dry_run")

		config := SendEmailConfig{
			From:   viper.GetString("from"),
			To:     args[0],
			APIKey: viper.GetString("sendgrid_api_key"),
			DryRun: dryRun,
			Filter: f,
		}
		err = sendEmail(t, config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)

	addFilterFlags(emailCmd)
	emailCmd.Flags().BoolP("dry_run", "n", false, "When true, just print instead of emailing")
}

func sendEmail(t *dataset.Table, config SendEmailConfig) error {
	subject, plain, body, err := generateEmailContent(t, config.Filter)
	if err != nil {
		return err
	}

	if config.DryRun {
		fmt.Printf("Would have sent email: \nsubject: %s\n%s\n", subject, body)
		return nil
	}

	if config.APIKey == "" {
		return fmt.Errorf("sendgrid_api_key must be set in order to send emails")
	}

	from := mail.NewEmail("track-dashboard", config.From)
	to := mail.NewEmail(config.To, config.To)
	message := mail.NewSingleEmail(from, subject, to, plain, body)
	client := sendgrid.NewSendClient(config.APIKey)
	resp, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendEmail: status %d: %s", resp.StatusCode, resp.Body)
	}
	logger.Info("sent summary email", zap.String("to", config.To), zap.Int("status", resp.StatusCode))
	return nil
}

// generateEmailContent renders the summary as plain text and HTML. An empty
// selection produces a short notice instead of tables.
func generateEmailContent(t *dataset.Table, f pipeline.Filter) (subject string, plain string, body string, err error) {
	subject = fmt.Sprintf("Track summary for %s %d to %d", t.Source(), f.MinYear, f.MaxYear)

	r, err := pipeline.Apply(t, f)
	var analyses []Analysis
	switch {
	case errors.Is(err, pipeline.ErrNoRowsMatched):
		analyses = []Analysis{{summary: "No tracks match the selected filters."}}
	case err != nil:
		return "", "", "", err
	default:
		analyses = resultAnalyses(r)
	}

	var text, out bytes.Buffer
	out.WriteString(`
<html>
  <head>
<style>
td {
  padding: 0.1em 0.2em;
}
table, th, td {
  border: 1px solid black;
  border-collapse: collapse;
}
</style>
  </head>
  <body>
`)
	fmt.Fprintf(&out, "<h1>%s</h1>\n", html.EscapeString(subject))
	for _, a := range analyses {
		out.WriteString(a.HTML())
		fmt.Fprintln(&text, a)
	}
	for _, sw := range t.Warnings() {
		fmt.Fprintf(&out, "<div><i>Warning: %s</i></div>\n", html.EscapeString(sw.Error()))
		fmt.Fprintf(&text, "Warning: %v\n", sw)
	}
	out.WriteString("  </body>\n</html>\n")

	return subject, text.String(), out.String(), nil
}
