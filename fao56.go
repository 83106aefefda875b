// Package fao56 implements a daily soil water balance for a single
// field/treatment realization following the FAO-56 dual crop coefficient
// method (Allen et al., 1998).
package fao56

import "time"

const (
	nearzero = 1e-8

	// ASCE appendix E fallbacks for missing observations
	defaultWndsp = 2.0  // m/s
	defaultRHmin = 45.0 // %
)

// DayDate truncates t to a UTC calendar date, the canonical map key for all
// date-indexed collaborators.
func DayDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDOY renders t as 'yyyy-ddd', the key format used in data files.
func FormatDOY(t time.Time) string { return t.Format("2006-002") }

// ParseDOY parses a 'yyyy-ddd' date key.
func ParseDOY(s string) (time.Time, error) { return time.Parse("2006-002", s) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
