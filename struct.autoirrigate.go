package fao56

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/maseology/mmio"
)

// AutoIrrigateSet is one window-scoped set of autoirrigation conditions.
// NaN means unconstrained for numeric controls; zero-value strings and
// false booleans likewise leave a control inactive.
type AutoIrrigateSet struct {
	Start time.Time // autoirrigate on this date or later
	End   time.Time // autoirrigate on this date or earlier

	// timing gates (all configured gates must pass)
	ALRE bool    // only after the last explicit irrigation event
	IDOW string  // permitted days of week, '1234567' (1:Sun ... 7:Sat); empty = all
	Dsli float64 // minimum days since last irrigation event
	Dsle float64 // minimum days since last watering event (incl. rain)
	Evnt float64 // minimum depth to count as a watering event (mm)

	// stress triggers (any configured trigger suffices)
	MAD   float64 // fractional depletion trigger: fDr > MAD
	MADDr float64 // absolute depletion trigger: Dr > MADDr (mm)
	Ksc   float64 // stress trigger: Ks < Ksc

	// forecast controls
	FpDep float64 // forecasted precipitation depth threshold (mm)
	FpDay float64 // days of forecast to consider
	FpAct string  // action above threshold: proceed | cancel | reduce

	// amount controls
	Icon  float64 // constant amount (mm)
	Iper  float64 // percentage of Dr (%)
	Itdr  float64 // target depletion after irrigation (mm)
	Itfdr float64 // target fractional depletion after irrigation
	Ietrd float64 // replace ETcadj minus rain from the past n days
	Ietri bool    // replace ETcadj minus rain since last irrigation
	Ietre bool    // replace ETcadj minus rain since last watering event
	Ieff  float64 // application efficiency (%)
	Imin  float64 // minimum applied amount (mm)
	Imax  float64 // maximum applied amount (mm)
}

// unconstrained reports whether a numeric control is inactive.
func unconstrained(v float64) bool { return math.IsNaN(v) }

// DefaultAutoIrrigateSet mirrors the conventional defaults: trigger on 50%
// depletion, refill the full deficit, count events of 10 mm or more.
func DefaultAutoIrrigateSet(start, end time.Time) AutoIrrigateSet {
	nan := math.NaN()
	return AutoIrrigateSet{
		Start: DayDate(start), End: DayDate(end),
		ALRE: true, IDOW: "",
		Dsli: nan, Dsle: nan, Evnt: 10.,
		MAD: 0.5, MADDr: nan, Ksc: nan,
		FpDep: 25., FpDay: 3., FpAct: "proceed",
		Icon: nan, Iper: 100., Itdr: nan, Itfdr: nan,
		Ietrd: nan, Ietri: false, Ietre: false,
		Ieff: 100., Imin: 0., Imax: nan,
	}
}

// dowPermitted reports whether t's weekday is allowed by the IDOW code.
func (s *AutoIrrigateSet) dowPermitted(t time.Time) bool {
	if s.IDOW == "" {
		return true
	}
	code := byte('1' + int(t.Weekday())) // Sunday=1 ... Saturday=7
	return strings.IndexByte(s.IDOW, code) >= 0
}

func (s *AutoIrrigateSet) validate(i int) error {
	bad := func(reason string) error {
		return &ConfigError{Component: "autoirrigate", Reason: fmt.Sprintf("set %d: %s", i, reason)}
	}
	if s.End.Before(s.Start) {
		return bad(fmt.Sprintf("window end %s before start %s", FormatDOY(s.End), FormatDOY(s.Start)))
	}
	switch s.FpAct {
	case "", "proceed", "cancel", "reduce":
	default:
		return bad(fmt.Sprintf("unknown forecast action %q", s.FpAct))
	}
	if s.IDOW != "" && strings.Trim(s.IDOW, "1234567") != "" {
		return bad(fmt.Sprintf("bad day-of-week code %q", s.IDOW))
	}
	// Iper scales the default depletion-replacement amount and may
	// coexist with it; the remaining methods are mutually exclusive
	n := 0
	for _, v := range []float64{s.Icon, s.Itdr, s.Itfdr, s.Ietrd} {
		if !unconstrained(v) {
			n++
		}
	}
	if s.Ietri {
		n++
	}
	if s.Ietre {
		n++
	}
	if n > 1 {
		return bad("more than one amount method configured")
	}
	if !unconstrained(s.Ieff) && s.Ieff <= 0 {
		return bad(fmt.Sprintf("efficiency %g must be positive", s.Ieff))
	}
	return nil
}

// AutoIrrigate is the ordered collection of condition sets. Windows may
// overlap; the last-defined matching set wins.
type AutoIrrigate struct {
	Sets []AutoIrrigateSet
}

// AutoIrrigateProvider is the capability interface the engine consumes.
type AutoIrrigateProvider interface {
	ActiveSet(t time.Time) (AutoIrrigateSet, bool)
}

// AddSet appends a condition set.
func (ai *AutoIrrigate) AddSet(s AutoIrrigateSet) { ai.Sets = append(ai.Sets, s) }

// ActiveSet resolves the condition set governing date t. With overlapping
// windows the last-defined set takes precedence.
func (ai *AutoIrrigate) ActiveSet(t time.Time) (AutoIrrigateSet, bool) {
	d := DayDate(t)
	for i := len(ai.Sets) - 1; i >= 0; i-- {
		s := ai.Sets[i]
		if !d.Before(s.Start) && !d.After(s.End) {
			return s, true
		}
	}
	return AutoIrrigateSet{}, false
}

// Validate checks every set for structural problems.
func (ai *AutoIrrigate) Validate() error {
	for i := range ai.Sets {
		if err := ai.Sets[i].validate(i); err != nil {
			return err
		}
	}
	return nil
}

const autoIrrigateColumns = "Start,End,ALRE,IDOW,Dsli,Dsle,Evnt,MAD,MADDr," +
	"Ksc,FpDep,FpDay,FpAct,Icon,Iper,Itdr,Itfdr,Ietrd,Ietri,Ietre,Ieff,Imin,Imax"

// SaveCSV writes the condition sets, one row per set, in definition order.
func (ai *AutoIrrigate) SaveCSV(fp string) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead(autoIrrigateColumns); err != nil {
		return fmt.Errorf("autoirrigate.SaveCSV: %w", err)
	}
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	for _, s := range ai.Sets {
		csvw.WriteLine(FormatDOY(s.Start), FormatDOY(s.End), b(s.ALRE), s.IDOW,
			s.Dsli, s.Dsle, s.Evnt, s.MAD, s.MADDr, s.Ksc,
			s.FpDep, s.FpDay, s.FpAct, s.Icon, s.Iper, s.Itdr, s.Itfdr,
			s.Ietrd, b(s.Ietri), b(s.Ietre), s.Ieff, s.Imin, s.Imax)
	}
	return nil
}

// LoadAutoIrrigateCSV reads condition sets written by SaveCSV.
func LoadAutoIrrigateCSV(fp string) (*AutoIrrigate, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadAutoIrrigateCSV: %w", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("LoadAutoIrrigateCSV: %w", err)
	}
	ai := &AutoIrrigate{}
	for i, rec := range recs {
		if i == 0 && rec[0] == "Start" {
			continue
		}
		if len(rec) < 23 {
			return nil, &ConfigError{Component: "autoirrigate", Reason: fmt.Sprintf("row %d: %d columns, want 23", i+1, len(rec))}
		}
		var s AutoIrrigateSet
		if s.Start, err = ParseDOY(rec[0]); err != nil {
			return nil, &ConfigError{Component: "autoirrigate", Reason: fmt.Sprintf("row %d: bad start %q", i+1, rec[0])}
		}
		if s.End, err = ParseDOY(rec[1]); err != nil {
			return nil, &ConfigError{Component: "autoirrigate", Reason: fmt.Sprintf("row %d: bad end %q", i+1, rec[1])}
		}
		s.ALRE = rec[2] == "1"
		s.IDOW = rec[3]
		s.FpAct = rec[12]
		s.Ietri = rec[18] == "1"
		s.Ietre = rec[19] == "1"
		for _, fld := range []struct {
			col int
			dst *float64
		}{
			{4, &s.Dsli}, {5, &s.Dsle}, {6, &s.Evnt}, {7, &s.MAD},
			{8, &s.MADDr}, {9, &s.Ksc}, {10, &s.FpDep}, {11, &s.FpDay},
			{13, &s.Icon}, {14, &s.Iper}, {15, &s.Itdr}, {16, &s.Itfdr},
			{17, &s.Ietrd}, {20, &s.Ieff}, {21, &s.Imin}, {22, &s.Imax},
		} {
			if *fld.dst, err = parseNaN(rec[fld.col]); err != nil {
				return nil, &ConfigError{Component: "autoirrigate", Reason: fmt.Sprintf("row %d col %d: %v", i+1, fld.col+1, err)}
			}
		}
		ai.AddSet(s)
	}
	return ai, ai.Validate()
}
