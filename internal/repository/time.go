package repository

import "time"

// storedTimeLayouts covers what Set writes plus the plain form SQLite's
// CURRENT_TIMESTAMP produces for rows inserted by hand.
var storedTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseStoredTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	var err error
	for _, layout := range storedTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
