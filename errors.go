package fao56

import (
	"fmt"
	"time"
)

// ConfigError reports structurally invalid inputs caught before the
// simulation starts. No partial output exists when one is returned.
type ConfigError struct {
	Component string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("fao56: invalid %s: %s", e.Component, e.Reason)
}

// DataGapError reports a missing weather record inside the simulation
// window. The run aborts at the first gap; skipping a day would break the
// mass-balance recurrence for every following day.
type DataGapError struct {
	Date time.Time
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("fao56: no weather record for %s", e.Date.Format("2006-002"))
}

// DomainError reports an intermediate value outside its physically valid
// range, signalling bad input rather than expected clamping.
type DomainError struct {
	Date     time.Time
	Quantity string
	Value    float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("fao56: %s = %g out of range on %s",
		e.Quantity, e.Value, e.Date.Format("2006-002"))
}
