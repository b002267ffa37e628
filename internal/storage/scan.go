package storage

import (
	"database/sql"
	"fmt"
	"time"

	"cove/internal/engine"
)

type scanner interface {
	Scan(dest ...any) error
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}

// dayKeyPtr stores a calendar day as YYYY-MM-DD so it never shifts with the zone.
func dayKeyPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	k := engine.DayKey(*t)
	return &k
}

func parseDay(key string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", key, err)
	}
	return d, nil
}
