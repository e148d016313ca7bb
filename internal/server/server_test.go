package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

const testCSV = `name,artists,year,popularity
One,A,1995,80
Two,A,1998,60
Three,B,2003,70
`

type stubLoader struct {
	body string
	fail bool
}

func (l *stubLoader) Load(_ context.Context, source string) (*dataset.Table, error) {
	if l.fail {
		return nil, fmt.Errorf("%w: connection refused", dataset.ErrSourceUnavailable)
	}
	return dataset.Parse(source, strings.NewReader(l.body))
}

func newTestServer(t *testing.T, loader dataset.TableLoader, opts ...Option) *Server {
	t.Helper()
	return New(dataset.NewCache(loader), "tracks.csv", opts...)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, &stubLoader{body: testCSV})

	rec := get(t, s, "/api/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var got struct {
		Count               int                    `json:"count"`
		ModalArtist         string                 `json:"modal_artist"`
		MeanPopularityLabel string                 `json:"mean_popularity_label"`
		Decades             []pipeline.DecadeCount `json:"decades"`
		Filter              pipeline.Filter        `json:"filter"`
	}
	decode(t, rec, &got)

	if got.Count != 3 || got.ModalArtist != "A" || got.MeanPopularityLabel != "70.0" {
		t.Errorf("summary = %+v, want count 3, modal A, mean 70.0", got)
	}
	wantDecades := []pipeline.DecadeCount{{Decade: "1990s", Count: 2}, {Decade: "2000s", Count: 1}}
	if diff := cmp.Diff(wantDecades, got.Decades); diff != "" {
		t.Errorf("decades mismatch (-want +got):\n%s", diff)
	}
	if got.Filter.MinYear != 1995 || got.Filter.MaxYear != 2003 {
		t.Errorf("default filter = %+v, want 1995-2003", got.Filter)
	}
}

func TestSummaryArtistFilter(t *testing.T) {
	s := newTestServer(t, &stubLoader{body: testCSV})

	rec := get(t, s, "/api/summary?artist=B")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var got struct {
		Count int `json:"count"`
	}
	decode(t, rec, &got)
	if got.Count != 1 {
		t.Errorf("count = %d, want 1", got.Count)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		loader     *stubLoader
		target     string
		wantStatus int
		wantCode   string
	}{
		{"no rows", &stubLoader{body: testCSV}, "/api/summary?min_year=1921&max_year=1930", http.StatusUnprocessableEntity, "NO_ROWS_MATCHED"},
		{"non-numeric year", &stubLoader{body: testCSV}, "/api/summary?min_year=abc", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"inverted range", &stubLoader{body: testCSV}, "/api/summary?min_year=2000&max_year=1990", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"negative limit", &stubLoader{body: testCSV}, "/api/tracks?limit=-1", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"zero n", &stubLoader{body: testCSV}, "/api/artists?n=0", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"bad export format", &stubLoader{body: testCSV}, "/api/export?format=pdf", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"source down", &stubLoader{fail: true}, "/api/summary", http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE"},
		{"source down bounds", &stubLoader{fail: true}, "/api/bounds", http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE"},
		{"empty chart", &stubLoader{body: testCSV}, "/charts/decades.png?min_year=1921&max_year=1930", http.StatusUnprocessableEntity, "NO_ROWS_MATCHED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.loader)
			rec := get(t, s, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body)
			}
			var apiErr APIError
			decode(t, rec, &apiErr)
			if apiErr.ErrorCode != tt.wantCode || apiErr.StatusCode != tt.wantStatus {
				t.Errorf("error = %+v, want code %s", apiErr, tt.wantCode)
			}
		})
	}
}

func TestTracksPaging(t *testing.T) {
	s := newTestServer(t, &stubLoader{body: testCSV})

	rec := get(t, s, "/api/tracks?limit=2&offset=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var got struct {
		Columns []pipeline.ColumnSpec    `json:"columns"`
		Total   int                      `json:"total"`
		Rows    []map[string]interface{} `json:"rows"`
	}
	decode(t, rec, &got)
	if got.Total != 3 {
		t.Errorf("total = %d, want 3", got.Total)
	}
	if len(got.Rows) != 2 || got.Rows[0]["name"] != "Two" {
		t.Errorf("rows = %v, want Two and Three", got.Rows)
	}
	if len(got.Columns) != 4 || got.Columns[0].Label != "Track" {
		t.Errorf("columns = %+v, want name, artists, year, popularity", got.Columns)
	}
}

func TestBoundsAndArtists(t *testing.T) {
	s := newTestServer(t, &stubLoader{body: testCSV})

	var bounds boundsResponse
	decode(t, get(t, s, "/api/bounds"), &bounds)
	if !bounds.Available || bounds.MinYear != 1995 || bounds.MaxYear != 2003 {
		t.Errorf("bounds = %+v, want 1995-2003", bounds)
	}

	var artists artistsResponse
	decode(t, get(t, s, "/api/artists?n=1"), &artists)
	if diff := cmp.Diff([]string{"A"}, artists.Artists); diff != "" {
		t.Errorf("artists mismatch (-want +got):\n%s", diff)
	}
}

func TestWarnings(t *testing.T) {
	s := newTestServer(t, &stubLoader{body: "artists,popularity\nA,1\n"})

	rec := get(t, s, "/api/warnings")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var got warningsResponse
	decode(t, rec, &got)
	if len(got.Warnings) != 2 {
		t.Errorf("warnings = %v, want name and year reported", got.Warnings)
	}
}

func TestCharts(t *testing.T) {
	s := newTestServer(t, &stubLoader{body: testCSV})

	for _, path := range []string{"/charts/top-artists.png", "/charts/decades.png"} {
		rec := get(t, s, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200; body %s", path, rec.Code, rec.Body)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("%s Content-Type = %q, want image/png", path, ct)
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
			t.Errorf("%s body is not a PNG", path)
		}
	}
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t, &stubLoader{body: testCSV})

	rec := get(t, s, "/api/export?artist=A")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	want := "name,artists,year,popularity\nOne,A,1995,80\nTwo,A,1998,60\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "tracks.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestCacheClearAndMetrics(t *testing.T) {
	s := newTestServer(t, &stubLoader{body: testCSV})

	get(t, s, "/api/summary")
	get(t, s, "/api/summary")

	req := httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	var cleared map[string]int
	decode(t, rec, &cleared)
	if cleared["cleared"] != 1 {
		t.Errorf("cleared = %v, want 1", cleared)
	}

	body, err := io.ReadAll(get(t, s, "/metrics").Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"track_dashboard_table_cache_hits_total 1",
		"track_dashboard_table_cache_misses_total 1",
		"track_dashboard_table_cache_entries 0",
		`track_dashboard_http_requests_total{code="200",route="/api/summary"} 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &stubLoader{body: testCSV}, WithRateLimit(0.001, 1))

	if rec := get(t, s, "/api/bounds"); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	rec := get(t, s, "/api/bounds")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec := get(t, s, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200 regardless of limit", rec.Code)
	}
}
