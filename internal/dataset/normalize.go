package dataset

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

var listPunctuation = strings.NewReplacer("[", "", "]", "", "'", "")

// Parse reads CSV from r and builds the normalized table for source.
// Rows that miss a required value, fail to parse or fall outside
// MinYear..MaxYear are dropped and counted in the table's LoadStats.
func Parse(source string, r io.Reader) (*Table, error) {
	hash := sha256.New()
	cr := csv.NewReader(io.TeeReader(r, hash))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s: no header row", ErrSourceUnavailable, source)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header of %s: %w", ErrSourceUnavailable, source, err)
	}
	mapping, warnings := ResolveSchema(append([]string(nil), header...))

	t := &Table{
		source:   source,
		schema:   mapping.Schema,
		columns:  mapping.Columns(),
		warnings: warnings,
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				t.stats.Read++
				t.stats.Unparsable++
				continue
			}
			return nil, fmt.Errorf("%w: reading %s: %w", ErrSourceUnavailable, source, err)
		}
		t.stats.Read++

		track, verdict := mapping.track(record)
		switch verdict {
		case rowMissing:
			t.stats.Missing++
			continue
		case rowUnparsable:
			t.stats.Unparsable++
			continue
		case rowOutOfRange:
			t.stats.OutOfRange++
			continue
		}
		t.tracks = append(t.tracks, track)
	}

	t.stats.Kept = len(t.tracks)
	t.digest = hex.EncodeToString(hash.Sum(nil))
	t.loadedAt = time.Now().UTC()
	return t, nil
}

type rowVerdict int

const (
	rowOK rowVerdict = iota
	rowMissing
	rowUnparsable
	rowOutOfRange
)

// track converts one record. Only columns present in the mapping are
// enforced.
func (m Mapping) track(record []string) (Track, rowVerdict) {
	var t Track

	if m.Has(ColName) {
		v, ok := m.field(record, ColName)
		if !ok {
			return t, rowMissing
		}
		t.Name = v
	}

	if m.Has(ColArtists) {
		v, ok := m.field(record, ColArtists)
		if !ok {
			return t, rowMissing
		}
		v = CleanArtists(v)
		if v == "" {
			return t, rowMissing
		}
		t.Artists = v
	}

	if m.Has(ColPopularity) {
		v, ok := m.field(record, ColPopularity)
		if !ok {
			return t, rowMissing
		}
		p, err := parseFloat(v)
		if err != nil {
			return t, rowUnparsable
		}
		t.Popularity = p
	}

	t.Decade = UnknownDecade
	if m.Has(ColYear) {
		year, verdict := m.year(record)
		if verdict != rowOK {
			return t, verdict
		}
		if year < MinYear || year > MaxYear {
			return t, rowOutOfRange
		}
		t.Year = year
		t.Decade = DecadeOf(year)
	}

	t.Energy = m.optionalFloat(record, ColEnergy)
	t.Danceability = m.optionalFloat(record, ColDanceability)
	t.Valence = m.optionalFloat(record, ColValence)
	if v, ok := m.field(record, ColDurationMS); ok {
		if f, err := parseFloat(v); err == nil {
			d := int64(f)
			t.DurationMS = &d
		}
	}

	return t, rowOK
}

// year prefers a direct year column and falls back to the part of a release
// date before the first '-'.
func (m Mapping) year(record []string) (int, rowVerdict) {
	if m.has(ColYear) {
		v, ok := m.field(record, ColYear)
		if !ok {
			return 0, rowMissing
		}
		return parseYear(v)
	}
	v, ok := m.field(record, colReleaseDate)
	if !ok {
		return 0, rowMissing
	}
	prefix, _, _ := strings.Cut(v, "-")
	return parseYear(strings.TrimSpace(prefix))
}

func parseYear(v string) (int, rowVerdict) {
	if y, err := strconv.Atoi(v); err == nil {
		return y, rowOK
	}
	f, err := parseFloat(v)
	if err != nil || f != math.Trunc(f) {
		return 0, rowUnparsable
	}
	return int(f), rowOK
}

func (m Mapping) optionalFloat(record []string, col Column) *float64 {
	v, ok := m.field(record, col)
	if !ok {
		return nil
	}
	f, err := parseFloat(v)
	if err != nil {
		return nil
	}
	return &f
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", v)
	}
	return f, nil
}

// CleanArtists turns a stringified list such as "['Ed Sheeran']" into a
// plain display name.
func CleanArtists(v string) string {
	if strings.ContainsAny(v, "[]'") {
		v = listPunctuation.Replace(v)
	}
	return strings.TrimSpace(v)
}
