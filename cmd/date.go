package cmd

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

func parseYearRangeFromArgs(args []string) (from int, to int, err error) {
	switch len(args) {
	case 1:
		from, to, err = getImplicitYearRange(args[0])

	case 2:
		from, to, err = getExplicitYearRange(args[0], args[1])

	default:
		err = fmt.Errorf("Expected one or two year arguments")
	}
	return
}

// getImplicitYearRange covers the single year ys.
func getImplicitYearRange(ys string) (from int, to int, err error) {
	from, err = parseSingleYearstring(ys)
	if err != nil {
		return
	}
	to = from
	return
}

func getExplicitYearRange(fromString, toString string) (from int, to int, err error) {
	from, err = parseSingleYearstring(fromString)
	if err != nil {
		return
	}

	to, err = parseSingleYearstring(toString)
	if err != nil {
		return
	}

	if from > to {
		err = fmt.Errorf("Invalid range: %d is after %d", from, to)
	}
	return
}

func parseSingleYearstring(ys string) (int, error) {
	if !yearPattern.MatchString(ys) {
		return 0, fmt.Errorf("Invalid format: %q", ys)
	}
	year, err := strconv.Atoi(ys)
	if err != nil {
		return 0, fmt.Errorf("Parsing yearstring: %w", err)
	}
	return year, nil
}

// filterFromArgs builds the filter for the optional year arguments. With no
// years the dashboard default for t is used.
func filterFromArgs(t *dataset.Table, args []string, artists []string) (pipeline.Filter, error) {
	f := pipeline.DefaultFilter(t)
	if len(args) > 0 {
		from, to, err := parseYearRangeFromArgs(args)
		if err != nil {
			return f, err
		}
		f.MinYear, f.MaxYear = from, to
	}
	f.Artists = artists
	return f, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("artist", nil, "Restrict to this artist (repeatable)")
}

func artistFlag(cmd *cobra.Command) []string {
	artists, _ := cmd.Flags().GetStringArray("artist")
	return artists
}
