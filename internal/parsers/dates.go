package parsers

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first layout that parses wins.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// zoneOffsets maps the RFC 822 zone names to numeric offsets. time.Parse
// reads an abbreviation it does not know from the local zone as offset 0.
var zoneOffsets = map[string]string{
	"UT":  "+0000",
	"UTC": "+0000",
	"GMT": "+0000",
	"Z":   "+0000",
	"EST": "-0500",
	"EDT": "-0400",
	"CST": "-0600",
	"CDT": "-0500",
	"MST": "-0700",
	"MDT": "-0600",
	"PST": "-0800",
	"PDT": "-0700",
}

// numericZone replaces a trailing zone name from zoneOffsets with its offset.
func numericZone(value string) string {
	i := strings.LastIndexByte(value, ' ')
	if i < 0 {
		return value
	}

	if offset, ok := zoneOffsets[strings.ToUpper(value[i+1:])]; ok {
		return value[:i+1] + offset
	}

	return value
}

// NormalizeDate renders a feed date as RFC 3339. A value no layout accepts
// is returned trimmed but otherwise unchanged.
func NormalizeDate(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	numeric := numericZone(value)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, numeric); err == nil {
			return t.Format(time.RFC3339)
		}
	}

	return value
}
