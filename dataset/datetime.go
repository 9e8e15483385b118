package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/YuminosukeSato/medlens/pkg/errors"
)

// DefaultDateLayouts are tried in order by ToDatetime.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
}

// ToDatetime parses a categorical series into a datetime series. Values that
// match none of the layouts become missing and raise a DataConversionWarning.
// Datetime series are returned as a copy; numeric series are rejected.
func ToDatetime(s *Series, layouts ...string) (*Series, error) {
	switch s.Kind() {
	case Datetime:
		return s.Copy(), nil
	case Numeric:
		return nil, errors.NewSchemaMismatchError("ToDatetime", s.Name(), Categorical.String(), Numeric.String())
	}
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	out := make([]time.Time, s.Len())
	coerced := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			continue
		}
		t, ok := parseTime(strings.TrimSpace(s.Str(i)), layouts)
		if !ok {
			coerced++
			continue
		}
		out[i] = t
	}
	if coerced > 0 {
		errors.Warn(errors.NewDataConversionWarning("string", "datetime",
			fmt.Sprintf("%d unparsable values in %q coerced to missing", coerced, s.Name())))
	}
	return NewDatetime(s.Name(), out), nil
}

func parseTime(v string, layouts []string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
