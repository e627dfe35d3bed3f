package lipsync

import (
	"strings"
	"time"
)

const displayLayout = "2006-01-02 15:04:05"

var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{layout: time.RFC3339Nano, zoned: true},
	{layout: "2006-01-02 15:04:05.999999999Z07:00", zoned: true},
	{layout: "2006-01-02T15:04:05.999999999"},
	{layout: "2006-01-02 15:04:05.999999999"},
}

// FormatCreatedAt renders an ISO-8601 timestamp as YYYY-MM-DD HH:MM:SS in loc.
// Timestamps without a zone are taken as already local. Unparseable input is
// returned unchanged.
func FormatCreatedAt(raw string, loc *time.Location) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	for _, l := range isoLayouts {
		var (
			ts  time.Time
			err error
		)
		if l.zoned {
			ts, err = time.Parse(l.layout, raw)
		} else {
			ts, err = time.ParseInLocation(l.layout, raw, loc)
		}
		if err == nil {
			return ts.In(loc).Format(displayLayout)
		}
	}
	return raw
}
