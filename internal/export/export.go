package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	TracksSheet  = "Tracks"
	SummarySheet = "Summary"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or xlsx)", s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write exports the filtered rows of r in the grid's column order.
func Write(w io.Writer, f Format, cols []pipeline.ColumnSpec, r *pipeline.Result) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, cols, r.Rows)
	case FormatXLSX:
		return WriteXLSX(w, cols, r)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteCSV writes a header of column keys followed by one line per track.
// Missing optional values are left empty.
func WriteCSV(w io.Writer, cols []pipeline.ColumnSpec, rows []dataset.Track) error {
	cw := csv.NewWriter(w)
	record := make([]string, len(cols))
	for i, c := range cols {
		record[i] = string(c.Key)
	}
	if err := cw.Write(record); err != nil {
		return err
	}
	for _, tr := range rows {
		for i, c := range cols {
			record[i] = c.Text(tr)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with the filtered tracks on one sheet and the
// aggregates on another.
func WriteXLSX(w io.Writer, cols []pipeline.ColumnSpec, r *pipeline.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TracksSheet); err != nil {
		return err
	}
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(TracksSheet, cell, c.Label); err != nil {
			return err
		}
	}
	for row, tr := range r.Rows {
		for i, c := range cols {
			v := c.Value(tr)
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, row+2)
			if err := f.SetCellValue(TracksSheet, cell, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	if err := writeSummary(f, r); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, r *pipeline.Result) error {
	rows := [][]interface{}{
		{"From year", r.Filter.MinYear},
		{"To year", r.Filter.MaxYear},
		{"Tracks", r.Count},
		{"Mean popularity", r.MeanPopularityLabel()},
		{"Most frequent artist", r.ModalArtist},
		{},
		{"Artist", "Tracks"},
	}
	for _, a := range r.TopArtists {
		rows = append(rows, []interface{}{a.Artist, a.Count})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Decade", "Tracks"})
	for _, d := range r.Decades {
		rows = append(rows, []interface{}{d.Decade, d.Count})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
