package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

// filterQuery holds the query parameters shared by the summary, tracks,
// chart and export endpoints.
type filterQuery struct {
	MinYear *int     `json:"min_year" validate:"omitempty,gte=0,lte=9999"`
	MaxYear *int     `json:"max_year" validate:"omitempty,gte=0,lte=9999"`
	Artists []string `json:"artist" validate:"omitempty,dive,required"`
	Limit   int      `json:"limit" validate:"gte=0,lte=1000"`
	Offset  int      `json:"offset" validate:"gte=0"`
}

type artistsQuery struct {
	N int `json:"n" validate:"gte=1,lte=1000"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report query parameter names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func parseFilterQuery(r *http.Request, v *validator.Validate) (filterQuery, error) {
	values := r.URL.Query()
	var q filterQuery
	var err error
	if q.MinYear, err = optionalInt(values.Get("min_year"), "min_year"); err != nil {
		return q, err
	}
	if q.MaxYear, err = optionalInt(values.Get("max_year"), "max_year"); err != nil {
		return q, err
	}
	if q.Limit, err = intOr(values.Get("limit"), "limit", 100); err != nil {
		return q, err
	}
	if q.Offset, err = intOr(values.Get("offset"), "offset", 0); err != nil {
		return q, err
	}
	for _, a := range values["artist"] {
		q.Artists = append(q.Artists, strings.TrimSpace(a))
	}
	if err := v.Struct(q); err != nil {
		return q, validationMessage(err)
	}
	return q, nil
}

func parseArtistsQuery(r *http.Request, v *validator.Validate) (artistsQuery, error) {
	var q artistsQuery
	var err error
	if q.N, err = intOr(r.URL.Query().Get("n"), "n", pipeline.ArtistOptionsLimit); err != nil {
		return q, err
	}
	if err := v.Struct(q); err != nil {
		return q, validationMessage(err)
	}
	return q, nil
}

// filter fills the years the query left out from the dashboard default.
func (q filterQuery) filter(t *dataset.Table) pipeline.Filter {
	f := pipeline.DefaultFilter(t)
	if q.MinYear != nil {
		f.MinYear = *q.MinYear
	}
	if q.MaxYear != nil {
		f.MaxYear = *q.MaxYear
	}
	f.Artists = q.Artists
	return f
}

func optionalInt(s, name string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer, got %q", name, s)
	}
	return &n, nil
}

func intOr(s, name string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, s)
	}
	return n, nil
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		} else {
			msgs[i] = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
