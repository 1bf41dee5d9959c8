package services

import "time"

// Layouts clients have historically sent for sync checkpoints. The old
// backend parsed these with strtotime, which was lenient; an unparseable
// value falls back to a full sync rather than an error.
var syncTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseSyncTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range syncTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
