package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"photocat/internal/catalog"
)

// ParsePropertyValue converts a command-line value for idx. An empty raw
// value clears the property. Keywords are comma separated and dates use
// RFC 3339.
func ParsePropertyValue(idx catalog.PropertyIndex, raw string) (catalog.PropertyValue, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return catalog.EmptyValue(), nil
	}

	switch idx {
	case catalog.PropRating, catalog.PropLabel, catalog.PropOrientation, catalog.PropFlag:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return catalog.PropertyValue{}, &catalog.ValidationError{Field: idx.String(), Message: fmt.Sprintf("%q is not an integer", raw)}
		}
		return catalog.IntValue(n), nil
	case catalog.PropKeywords:
		var kws []string
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kws = append(kws, k)
			}
		}
		return catalog.StringArrayValue(kws), nil
	case catalog.PropDateTimeOriginal:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return catalog.PropertyValue{}, &catalog.ValidationError{Field: idx.String(), Message: fmt.Sprintf("%q is not an RFC 3339 date", raw)}
		}
		return catalog.DateValue(t), nil
	default:
		return catalog.StringValue(raw), nil
	}
}
