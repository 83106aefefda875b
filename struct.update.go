package fao56

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/maseology/mmio"
)

// UpdateRecord overrides growth-curve state variables for one date.
// NaN fields leave the curve-derived value in place.
type UpdateRecord struct {
	Kcb float64 // basal crop coefficient
	H   float64 // plant height (m)
	Fc  float64 // canopy cover fraction
}

// Update is the per-date override series. When a record exists for a
// date it supersedes the growth-curve value for that date only.
type Update struct {
	Records map[time.Time]UpdateRecord
}

// UpdateProvider is the capability interface the engine consumes.
type UpdateProvider interface {
	Record(t time.Time) (UpdateRecord, bool)
}

// NewUpdate returns an empty override series.
func NewUpdate() *Update {
	return &Update{Records: map[time.Time]UpdateRecord{}}
}

// Record returns the override for t, reporting absence explicitly.
func (u *Update) Record(t time.Time) (UpdateRecord, bool) {
	r, ok := u.Records[DayDate(t)]
	return r, ok
}

// Set adds an override; pass NaN for fields to leave untouched.
func (u *Update) Set(t time.Time, kcb, h, fc float64) {
	u.Records[DayDate(t)] = UpdateRecord{Kcb: kcb, H: h, Fc: fc}
}

// SaveCSV writes the series as Date,Kcb,h,fc rows in date order.
func (u *Update) SaveCSV(fp string) error {
	ts := make([]time.Time, 0, len(u.Records))
	for t := range u.Records {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("Date,Kcb,h,fc"); err != nil {
		return fmt.Errorf("update.SaveCSV: %w", err)
	}
	for _, t := range ts {
		r := u.Records[t]
		csvw.WriteLine(FormatDOY(t), r.Kcb, r.H, r.Fc)
	}
	return nil
}

// LoadUpdateCSV reads a series written by SaveCSV.
func LoadUpdateCSV(fp string) (*Update, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadUpdateCSV: %w", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("LoadUpdateCSV: %w", err)
	}
	u := NewUpdate()
	for i, rec := range recs {
		if i == 0 && rec[0] == "Date" {
			continue
		}
		if len(rec) < 4 {
			return nil, &ConfigError{Component: "update", Reason: fmt.Sprintf("row %d: %d columns, want 4", i+1, len(rec))}
		}
		t, err := ParseDOY(rec[0])
		if err != nil {
			return nil, &ConfigError{Component: "update", Reason: fmt.Sprintf("row %d: bad date %q", i+1, rec[0])}
		}
		var v [3]float64
		for j := range v {
			if v[j], err = parseNaN(rec[j+1]); err != nil {
				return nil, &ConfigError{Component: "update", Reason: fmt.Sprintf("row %d: bad value %q", i+1, rec[j+1])}
			}
		}
		u.Records[t] = UpdateRecord{Kcb: v[0], H: v[1], Fc: v[2]}
	}
	return u, nil
}

// override applies r to the curve-derived value v; NaN or non-positive
// entries leave the curve value.
func override(v, upd float64) float64 {
	if math.IsNaN(upd) || upd <= 0 {
		return v
	}
	return upd
}
