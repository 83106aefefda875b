package fao56

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/maseology/mmio"
)

// IrrigationEvent is one explicit irrigation application.
type IrrigationEvent struct {
	Depth float64 // applied depth (mm)
	Fw    float64 // fraction of soil surface wetted (FAO-56 Table 20)
	Eff   float64 // application efficiency (%), 100 when unmetered
}

// Irrigation is the explicit irrigation schedule: at most one event per
// date. An explicit event suppresses autoirrigation for that date.
type Irrigation struct {
	Events map[time.Time]IrrigationEvent
}

// IrrigationProvider is the capability interface the engine consumes.
type IrrigationProvider interface {
	Event(t time.Time) (IrrigationEvent, bool)
}

// NewIrrigation returns an empty schedule.
func NewIrrigation() *Irrigation {
	return &Irrigation{Events: map[time.Time]IrrigationEvent{}}
}

// Event returns the explicit event for t, reporting absence explicitly.
func (ir *Irrigation) Event(t time.Time) (IrrigationEvent, bool) {
	e, ok := ir.Events[DayDate(t)]
	return e, ok
}

// AddEvent schedules an event, replacing any prior event on the date.
func (ir *Irrigation) AddEvent(t time.Time, depth, fw, eff float64) {
	ir.Events[DayDate(t)] = IrrigationEvent{Depth: depth, Fw: fw, Eff: eff}
}

// Validate rejects events whose wetted fraction falls outside (0,1];
// fw divides the applied depth when updating the surface layer.
func (ir *Irrigation) Validate() error {
	for t, e := range ir.Events {
		if e.Fw <= 0 || e.Fw > 1 {
			return &ConfigError{Component: "irrigation",
				Reason: fmt.Sprintf("%s: fw %g outside (0,1]", FormatDOY(t), e.Fw)}
		}
		if e.Depth < 0 {
			return &ConfigError{Component: "irrigation",
				Reason: fmt.Sprintf("%s: negative depth %g", FormatDOY(t), e.Depth)}
		}
	}
	return nil
}

// SaveCSV writes the schedule as Date,Depth,fw,Eff rows in date order.
func (ir *Irrigation) SaveCSV(fp string) error {
	ts := make([]time.Time, 0, len(ir.Events))
	for t := range ir.Events {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("Date,Depth,fw,Eff"); err != nil {
		return fmt.Errorf("irrigation.SaveCSV: %w", err)
	}
	for _, t := range ts {
		e := ir.Events[t]
		csvw.WriteLine(FormatDOY(t), e.Depth, e.Fw, e.Eff)
	}
	return nil
}

// LoadIrrigationCSV reads a schedule written by SaveCSV.
func LoadIrrigationCSV(fp string) (*Irrigation, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadIrrigationCSV: %w", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("LoadIrrigationCSV: %w", err)
	}
	ir := NewIrrigation()
	for i, rec := range recs {
		if i == 0 && rec[0] == "Date" {
			continue
		}
		if len(rec) < 4 {
			return nil, &ConfigError{Component: "irrigation", Reason: fmt.Sprintf("row %d: %d columns, want 4", i+1, len(rec))}
		}
		t, err := ParseDOY(rec[0])
		if err != nil {
			return nil, &ConfigError{Component: "irrigation", Reason: fmt.Sprintf("row %d: bad date %q", i+1, rec[0])}
		}
		var v [3]float64
		for j := range v {
			if v[j], err = strconv.ParseFloat(rec[j+1], 64); err != nil {
				return nil, &ConfigError{Component: "irrigation", Reason: fmt.Sprintf("row %d: bad value %q", i+1, rec[j+1])}
			}
		}
		ir.AddEvent(t, v[0], v[1], v[2])
	}
	return ir, ir.Validate()
}
