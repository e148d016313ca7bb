package charts

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ademuri/track-dashboard/internal/pipeline"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestTopArtists(t *testing.T) {
	tests := []struct {
		name    string
		artists []pipeline.ArtistCount
	}{
		{"several", []pipeline.ArtistCount{{Artist: "Maroon 5", Count: 3}, {Artist: "Ed Sheeran", Count: 2}, {Artist: "Adele", Count: 1}}},
		{"single", []pipeline.ArtistCount{{Artist: "Maroon 5", Count: 1}}},
		{"ties", []pipeline.ArtistCount{{Artist: "A", Count: 2}, {Artist: "B", Count: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := TopArtists(&buf, tt.artists); err != nil {
				t.Fatalf("TopArtists() error: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
				t.Errorf("TopArtists() output is not a PNG")
			}
		})
	}
}

func TestDecades(t *testing.T) {
	var buf bytes.Buffer
	decades := []pipeline.DecadeCount{{Decade: "1990s", Count: 4}, {Decade: "2000s", Count: 2}, {Decade: "unknown", Count: 1}}
	if err := Decades(&buf, decades); err != nil {
		t.Fatalf("Decades() error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Errorf("Decades() output is not a PNG")
	}
}

func TestNoData(t *testing.T) {
	var buf bytes.Buffer
	if err := TopArtists(&buf, nil); !errors.Is(err, ErrNoData) {
		t.Errorf("TopArtists(nil) error = %v, want ErrNoData", err)
	}
	if err := Decades(&buf, []pipeline.DecadeCount{{Decade: "1990s", Count: 0}}); !errors.Is(err, ErrNoData) {
		t.Errorf("Decades(zero counts) error = %v, want ErrNoData", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes on error, want 0", buf.Len())
	}
}
