// Package query compiles raw request parameters into the filter, sort and
// pagination inputs of a catalog query. Parsing is strict: a parameter that
// should be numeric but is not parseable is rejected instead of being passed
// through to the store.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// MalformedParameterError reports a query parameter whose value could not be
// parsed into its expected type.
type MalformedParameterError struct {
	Param string
	Value string
}

func (e *MalformedParameterError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %q", e.Value, e.Param)
}

// Filter is the conjunction of the clauses supplied in a list request.
// Zero-valued / nil fields contribute no clause, so the zero Filter matches
// every item.
type Filter struct {
	Type      string
	Search    string
	Year      *int
	YearFrom  *int
	YearTo    *int
	GenreID   *int
	MinRating *float64
}

// IsZero reports whether the filter carries no clause at all.
func (f Filter) IsZero() bool {
	return f.Type == "" && f.Search == "" && f.Year == nil &&
		f.YearFrom == nil && f.YearTo == nil && f.GenreID == nil && f.MinRating == nil
}

// ParseFilter compiles the supported query parameters into a Filter.
//
// An exact "year" takes precedence over "yearFrom"/"yearTo": when year is
// supplied the range parameters are ignored entirely.
func ParseFilter(values url.Values) (Filter, error) {
	f := Filter{
		Type:   values.Get("type"),
		Search: values.Get("search"),
	}

	year, err := intParam(values, "year")
	if err != nil {
		return Filter{}, err
	}
	if year != nil {
		f.Year = year
	} else {
		if f.YearFrom, err = intParam(values, "yearFrom"); err != nil {
			return Filter{}, err
		}
		if f.YearTo, err = intParam(values, "yearTo"); err != nil {
			return Filter{}, err
		}
	}

	if f.GenreID, err = intParam(values, "genre"); err != nil {
		return Filter{}, err
	}

	if raw := values.Get("minRating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		// ParseFloat accepts "NaN" and "Inf" literals, which are not ratings
		if err != nil || math.IsNaN(minRating) || math.IsInf(minRating, 0) {
			return Filter{}, &MalformedParameterError{Param: "minRating", Value: raw}
		}
		f.MinRating = &minRating
	}

	return f, nil
}

func intParam(values url.Values, name string) (*int, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &MalformedParameterError{Param: name, Value: raw}
	}
	return &n, nil
}
