package pipeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/ademuri/track-dashboard/internal/dataset"
)

const (
	// NotAvailable is shown for a metric that cannot be computed.
	NotAvailable = "N/A"

	TopArtistsLimit    = 10
	ArtistOptionsLimit = 100

	defaultFromYear = 1990
	defaultToYear   = 2020
)

var (
	ErrNoRowsMatched = errors.New("no tracks match the selected filters")
	ErrInvalidRange  = errors.New("invalid year range")
)

// Filter is the user's selection. Years are inclusive; an empty Artists
// list means no artist restriction.
type Filter struct {
	MinYear int      `json:"min_year" yaml:"min_year"`
	MaxYear int      `json:"max_year" yaml:"max_year"`
	Artists []string `json:"artists,omitempty" yaml:"artists,omitempty"`
}

func (f Filter) Validate() error {
	if f.MinYear > f.MaxYear {
		return fmt.Errorf("%w: %d > %d", ErrInvalidRange, f.MinYear, f.MaxYear)
	}
	return nil
}

type ArtistCount struct {
	Artist string `json:"artist" yaml:"artist"`
	Count  int    `json:"count" yaml:"count"`
}

type DecadeCount struct {
	Decade string `json:"decade" yaml:"decade"`
	Count  int    `json:"count" yaml:"count"`
}

// Result is everything one rendering pass needs. It shares nothing mutable
// with the table it was computed from.
type Result struct {
	Filter         Filter          `json:"filter" yaml:"filter"`
	Count          int             `json:"count" yaml:"count"`
	MeanPopularity *float64        `json:"mean_popularity" yaml:"mean_popularity"`
	ModalArtist    string          `json:"modal_artist" yaml:"modal_artist"`
	TopArtists     []ArtistCount   `json:"top_artists" yaml:"top_artists"`
	Decades        []DecadeCount   `json:"decades" yaml:"decades"`
	Rows           []dataset.Track `json:"-" yaml:"-"`
}

// MeanPopularityLabel formats the mean with one decimal, or NotAvailable.
func (r *Result) MeanPopularityLabel() string {
	if r.MeanPopularity == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*r.MeanPopularity, 'f', 1, 64)
}

// Apply filters t and aggregates the surviving rows. It returns
// ErrNoRowsMatched, and no result, when nothing survives.
func Apply(t *dataset.Table, f Filter) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	byYear := t.Has(dataset.ColYear)
	// Without an artists column the allowlist cannot match anything.
	var allow map[string]bool
	if len(f.Artists) > 0 && t.Has(dataset.ColArtists) {
		allow = make(map[string]bool, len(f.Artists))
		for _, a := range f.Artists {
			allow[a] = true
		}
	}

	var rows []dataset.Track
	for i := 0; i < t.Len(); i++ {
		tr := t.At(i)
		if byYear && (tr.Year < f.MinYear || tr.Year > f.MaxYear) {
			continue
		}
		if allow != nil && !allow[tr.Artists] {
			continue
		}
		rows = append(rows, tr)
	}
	if len(rows) == 0 {
		return nil, ErrNoRowsMatched
	}

	r := &Result{
		Filter:      f,
		Count:       len(rows),
		ModalArtist: NotAvailable,
		Rows:        rows,
	}

	if t.Has(dataset.ColPopularity) {
		var sum float64
		for _, tr := range rows {
			sum += tr.Popularity
		}
		mean := sum / float64(len(rows))
		r.MeanPopularity = &mean
	}

	if t.Has(dataset.ColArtists) {
		artists := rankArtists(rows)
		r.ModalArtist = artists[0].Artist
		if len(artists) > TopArtistsLimit {
			artists = artists[:TopArtistsLimit]
		}
		r.TopArtists = artists
	}

	r.Decades = decadeDistribution(rows)
	return r, nil
}

// rankArtists counts rows per artist, most frequent first. Ties keep the
// order in which the artists were first seen.
func rankArtists(rows []dataset.Track) []ArtistCount {
	index := make(map[string]int)
	var counts []ArtistCount
	for _, tr := range rows {
		i, ok := index[tr.Artists]
		if !ok {
			i = len(counts)
			index[tr.Artists] = i
			counts = append(counts, ArtistCount{Artist: tr.Artists})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

func decadeDistribution(rows []dataset.Track) []DecadeCount {
	index := make(map[string]int)
	var counts []DecadeCount
	for _, tr := range rows {
		i, ok := index[tr.Decade]
		if !ok {
			i = len(counts)
			index[tr.Decade] = i
			counts = append(counts, DecadeCount{Decade: tr.Decade})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return DecadeValue(counts[i].Decade) < DecadeValue(counts[j].Decade)
	})
	return counts
}

// DecadeValue parses the leading digits of a decade label ("1990s" ->
// 1990). Labels without digits sort after every decade.
func DecadeValue(label string) int {
	end := 0
	for end < len(label) && label[end] >= '0' && label[end] <= '9' {
		end++
	}
	v, err := strconv.Atoi(label[:end])
	if err != nil {
		return math.MaxInt
	}
	return v
}

// ArtistOptions lists the n most frequent artists of the whole table, for
// the artist selector. It depends only on t, so it is stable across filter
// changes.
func ArtistOptions(t *dataset.Table, n int) []string {
	if !t.Has(dataset.ColArtists) {
		return nil
	}
	ranked := rankArtists(t.Tracks())
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	names := make([]string, len(ranked))
	for i, a := range ranked {
		names[i] = a.Artist
	}
	return names
}

// YearBounds returns the observed year range of t. ok is false when t has
// no year column or no rows.
func YearBounds(t *dataset.Table) (lo, hi int, ok bool) {
	if !t.Has(dataset.ColYear) || t.Len() == 0 {
		return 0, 0, false
	}
	lo, hi = math.MaxInt, math.MinInt
	for i := 0; i < t.Len(); i++ {
		y := t.At(i).Year
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return lo, hi, true
}

// DefaultFilter is the initial dashboard selection: 1990-2020 clamped to
// the data, no artist restriction.
func DefaultFilter(t *dataset.Table) Filter {
	lo, hi, ok := YearBounds(t)
	if !ok {
		return Filter{MinYear: dataset.MinYear, MaxYear: dataset.MaxYear}
	}
	f := Filter{MinYear: defaultFromYear, MaxYear: defaultToYear}
	if f.MinYear < lo {
		f.MinYear = lo
	}
	if f.MaxYear > hi {
		f.MaxYear = hi
	}
	if f.MinYear > f.MaxYear {
		f.MinYear, f.MaxYear = lo, hi
	}
	return f
}
