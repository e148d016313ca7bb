package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/ademuri/track-dashboard/internal/charts"
	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/export"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

type boundsResponse struct {
	Available bool            `json:"available"`
	MinYear   int             `json:"min_year,omitempty"`
	MaxYear   int             `json:"max_year,omitempty"`
	Default   pipeline.Filter `json:"default"`
}

type artistsResponse struct {
	Artists []string `json:"artists"`
}

type summaryResponse struct {
	*pipeline.Result
	MeanPopularityLabel string `json:"mean_popularity_label"`
}

type tracksResponse struct {
	Columns []pipeline.ColumnSpec    `json:"columns"`
	Total   int                      `json:"total"`
	Offset  int                      `json:"offset"`
	Limit   int                      `json:"limit"`
	Rows    []map[string]interface{} `json:"rows"`
}

type warningsResponse struct {
	Source   string            `json:"source"`
	Schema   string            `json:"schema"`
	Digest   string            `json:"digest"`
	Warnings []string          `json:"warnings"`
	Stats    dataset.LoadStats `json:"stats"`
	Dropped  int               `json:"dropped"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// table fetches the source through the cache, rendering the error itself
// when the source cannot be loaded.
func (s *Server) table(w http.ResponseWriter, r *http.Request) (*dataset.Table, bool) {
	t, err := s.cache.Get(r.Context(), s.source)
	if err != nil {
		s.logger.Error("loading source", zap.String("source", s.source), zap.Error(err))
		render.Render(w, r, errSourceUnavailable(err.Error()))
		return nil, false
	}
	return t, true
}

// result loads the table and runs the pipeline for the request's filter.
func (s *Server) result(w http.ResponseWriter, r *http.Request) (*dataset.Table, filterQuery, *pipeline.Result, bool) {
	q, err := parseFilterQuery(r, s.validate)
	if err != nil {
		render.Render(w, r, errInvalidParameter(err.Error()))
		return nil, q, nil, false
	}
	t, ok := s.table(w, r)
	if !ok {
		return nil, q, nil, false
	}
	res, err := pipeline.Apply(t, q.filter(t))
	switch {
	case errors.Is(err, pipeline.ErrInvalidRange):
		render.Render(w, r, errInvalidParameter(err.Error()))
		return nil, q, nil, false
	case errors.Is(err, pipeline.ErrNoRowsMatched):
		render.Render(w, r, errNoRowsMatched("No tracks match the selected filters. Try widening the year range or clearing the artist selection."))
		return nil, q, nil, false
	case err != nil:
		render.Render(w, r, errInternal(err.Error()))
		return nil, q, nil, false
	}
	return t, q, res, true
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	lo, hi, available := pipeline.YearBounds(t)
	render.JSON(w, r, boundsResponse{
		Available: available,
		MinYear:   lo,
		MaxYear:   hi,
		Default:   pipeline.DefaultFilter(t),
	})
}

func (s *Server) handleArtists(w http.ResponseWriter, r *http.Request) {
	q, err := parseArtistsQuery(r, s.validate)
	if err != nil {
		render.Render(w, r, errInvalidParameter(err.Error()))
		return
	}
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	artists := pipeline.ArtistOptions(t, q.N)
	if artists == nil {
		artists = []string{}
	}
	render.JSON(w, r, artistsResponse{Artists: artists})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	_, _, res, ok := s.result(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, summaryResponse{Result: res, MeanPopularityLabel: res.MeanPopularityLabel()})
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	t, q, res, ok := s.result(w, r)
	if !ok {
		return
	}
	cols := pipeline.GridColumns(t)
	page := pipeline.Page(res.Rows, q.Offset, q.Limit)
	rows := make([]map[string]interface{}, len(page))
	for i, tr := range page {
		row := make(map[string]interface{}, len(cols))
		for _, c := range cols {
			row[string(c.Key)] = c.Value(tr)
		}
		rows[i] = row
	}
	render.JSON(w, r, tracksResponse{
		Columns: cols,
		Total:   res.Count,
		Offset:  q.Offset,
		Limit:   q.Limit,
		Rows:    rows,
	})
}

func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	warnings := []string{}
	for _, sw := range t.Warnings() {
		warnings = append(warnings, sw.Error())
	}
	render.JSON(w, r, warningsResponse{
		Source:   t.Source(),
		Schema:   t.Schema(),
		Digest:   t.Digest(),
		Warnings: warnings,
		Stats:    t.Stats(),
		Dropped:  t.Stats().Dropped(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := export.FormatCSV
	if v := r.URL.Query().Get("format"); v != "" {
		var err error
		if format, err = export.ParseFormat(v); err != nil {
			render.Render(w, r, errInvalidParameter(err.Error()))
			return
		}
	}
	t, _, res, ok := s.result(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, pipeline.GridColumns(t), res); err != nil {
		s.logger.Error("exporting tracks", zap.Error(err))
		render.Render(w, r, errInternal(err.Error()))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tracks.%s"`, format))
	writeBody(w, &buf, s.logger)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	n := s.cache.Len()
	s.cache.Clear()
	s.logger.Info("table cache cleared", zap.Int("entries", n))
	render.JSON(w, r, map[string]int{"cleared": n})
}

func (s *Server) handleTopArtistsChart(w http.ResponseWriter, r *http.Request) {
	s.chart(w, r, func(out io.Writer, res *pipeline.Result) error {
		return charts.TopArtists(out, res.TopArtists)
	})
}

func (s *Server) handleDecadesChart(w http.ResponseWriter, r *http.Request) {
	s.chart(w, r, func(out io.Writer, res *pipeline.Result) error {
		return charts.Decades(out, res.Decades)
	})
}

// chart renders into a buffer first so a failure can still be reported
// as JSON.
func (s *Server) chart(w http.ResponseWriter, r *http.Request, draw func(io.Writer, *pipeline.Result) error) {
	_, _, res, ok := s.result(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := draw(&buf, res)
	if errors.Is(err, charts.ErrNoData) {
		render.Render(w, r, errNoRowsMatched("The selected tracks carry no data for this chart."))
		return
	}
	if err != nil {
		s.logger.Error("rendering chart", zap.String("path", r.URL.Path), zap.Error(err))
		render.Render(w, r, errInternal(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	writeBody(w, &buf, s.logger)
}

func writeBody(w http.ResponseWriter, buf *bytes.Buffer, logger *zap.Logger) {
	if _, err := buf.WriteTo(w); err != nil {
		logger.Debug("writing response", zap.Error(err))
	}
}
