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
	"fmt"
	"html"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

// Analysis is one titled table of results. results[0] is the header row.
type Analysis struct {
	title   string
	results [][]string
	summary string
}

func (a Analysis) String() string {
	out := new(bytes.Buffer)
	if a.title != "" {
		fmt.Fprintf(out, "%s\n", a.title)
	}
	if len(a.results) > 1 {
		table := tablewriter.NewWriter(out)
		table.Header(a.results[0])
		for _, row := range a.results[1:] {
			if err := table.Append(row); err != nil {
				return fmt.Sprintf("Error rendering table: %v", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Sprintf("Error rendering table: %v", err)
		}
	}
	if a.summary != "" {
		fmt.Fprintf(out, "%s\n", a.summary)
	}
	return out.String()
}

// HTML renders the analysis for an email body.
func (a Analysis) HTML() string {
	out := new(bytes.Buffer)
	out.WriteString("<div>\n")
	if a.title != "" {
		fmt.Fprintf(out, "<h2>%s</h2>\n", html.EscapeString(a.title))
	}
	if len(a.results) > 1 {
		out.WriteString("<table>\n<thead>\n<tr>")
		for _, header := range a.results[0] {
			fmt.Fprintf(out, "<th>%s</th>", html.EscapeString(header))
		}
		out.WriteString("</tr>\n</thead>\n<tbody>\n")
		for _, row := range a.results[1:] {
			out.WriteString("<tr>")
			for _, column := range row {
				fmt.Fprintf(out, "<td>%s</td>", html.EscapeString(column))
			}
			out.WriteString("</tr>\n")
		}
		out.WriteString("</tbody>\n</table>\n")
	}
	if a.summary != "" {
		fmt.Fprintf(out, "<div>%s</div>\n", html.EscapeString(a.summary))
	}
	out.WriteString("</div>\n")
	return out.String()
}

func metricsAnalysis(r *pipeline.Result) Analysis {
	return Analysis{
		title: fmt.Sprintf("Tracks released %d to %d", r.Filter.MinYear, r.Filter.MaxYear),
		results: [][]string{
			{"Metric", "Value"},
			{"Tracks", strconv.Itoa(r.Count)},
			{"Mean popularity", r.MeanPopularityLabel()},
			{"Most frequent artist", r.ModalArtist},
		},
	}
}

func topArtistsAnalysis(r *pipeline.Result) Analysis {
	results := [][]string{{"Rank", "Artist", "Tracks"}}
	for i, a := range r.TopArtists {
		results = append(results, []string{strconv.Itoa(i + 1), a.Artist, strconv.Itoa(a.Count)})
	}
	a := Analysis{title: "Top artists", results: results}
	if len(r.TopArtists) == 0 {
		a.summary = "No artist column in this dataset."
	}
	return a
}

func decadesAnalysis(r *pipeline.Result) Analysis {
	results := [][]string{{"Decade", "Tracks", "Share"}}
	for _, d := range r.Decades {
		share := 100 * float64(d.Count) / float64(r.Count)
		results = append(results, []string{d.Decade, strconv.Itoa(d.Count), fmt.Sprintf("%.1f%%", share)})
	}
	return Analysis{title: "Tracks by decade", results: results}
}

func resultAnalyses(r *pipeline.Result) []Analysis {
	return []Analysis{metricsAnalysis(r), topArtistsAnalysis(r), decadesAnalysis(r)}
}

func tracksAnalysis(cols []pipeline.ColumnSpec, rows []dataset.Track, offset, total int) Analysis {
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	results := [][]string{header}
	for _, tr := range rows {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = c.Text(tr)
		}
		results = append(results, row)
	}

	a := Analysis{results: results}
	if len(rows) == 0 {
		a.summary = fmt.Sprintf("No tracks at offset %d of %d.", offset, total)
	} else {
		a.summary = fmt.Sprintf("Showing %d-%d of %d tracks.", offset+1, offset+len(rows), total)
	}
	return a
}

func artistsAnalysis(artists []string) Analysis {
	results := [][]string{{"Rank", "Artist"}}
	for i, a := range artists {
		results = append(results, []string{strconv.Itoa(i + 1), a})
	}
	return Analysis{results: results, summary: fmt.Sprintf("%d artists.", len(artists))}
}
