// Package postpro evaluates and renders completed simulation runs:
// goodness-of-fit statistics against field measurements and seasonal
// summary charts.
package postpro

import (
	"fmt"
	"math"
	"time"

	"github.com/maseology/objfunc"

	"github.com/agroclim/fao56"
)

// Stats are goodness-of-fit measures between an observed and a
// simulated series.
type Stats struct {
	N     int
	Bias  float64 // mean(sim-obs)
	PBias float64 // percent bias
	MAE   float64
	RMSE  float64
	RRMSE float64 // RMSE relative to the observed mean
	NSE   float64 // Nash-Sutcliffe efficiency
	KGE   float64 // Kling-Gupta efficiency
	D     float64 // Willmott index of agreement
}

// Compute returns fit statistics for paired observed and simulated
// values.
func Compute(obs, sim []float64) (Stats, error) {
	if len(obs) != len(sim) {
		return Stats{}, fmt.Errorf("postpro: series length mismatch %d != %d", len(obs), len(sim))
	}
	if len(obs) < 2 {
		return Stats{}, fmt.Errorf("postpro: need at least 2 pairs, have %d", len(obs))
	}

	n := float64(len(obs))
	var obar, mae, sdiff float64
	for i := range obs {
		obar += obs[i]
		mae += math.Abs(sim[i] - obs[i])
		sdiff += sim[i] - obs[i]
	}
	obar /= n
	mae /= n

	// Willmott (1982) index of agreement
	var num, den float64
	for i := range obs {
		num += math.Pow(sim[i]-obs[i], 2.)
		den += math.Pow(math.Abs(sim[i]-obar)+math.Abs(obs[i]-obar), 2.)
	}
	d := 1.
	if den > 0. {
		d = 1. - num/den
	}

	s := Stats{
		N:    len(obs),
		Bias: objfunc.Bias(obs, sim),
		MAE:  mae,
		RMSE: objfunc.RMSE(obs, sim),
		NSE:  objfunc.NSE(obs, sim),
		KGE:  objfunc.KGE(obs, sim),
		D:    d,
	}
	if obar != 0. {
		s.PBias = 100. * sdiff / (obar * n)
		s.RRMSE = s.RMSE / obar
	}
	return s, nil
}

func (s Stats) String() string {
	return fmt.Sprintf("n: %d  KGE: %.3f  NSE: %.3f  d: %.3f  RMSE: %.3f  MAE: %.3f  Bias: %.3f  PBias: %.1f%%",
		s.N, s.KGE, s.NSE, s.D, s.RMSE, s.MAE, s.Bias, s.PBias)
}

// Pair aligns dated observations with a simulated run, returning
// observed and simulated value pairs for dates present in both. sel
// selects the simulated quantity to compare, e.g. root-zone depletion:
//
//	obs, sim := postpro.Pair(meas, states, func(s *fao56.DailyState) float64 { return s.Dr })
func Pair(meas map[time.Time]float64, states []fao56.DailyState, sel func(*fao56.DailyState) float64) (obs, sim []float64) {
	for i := range states {
		if o, ok := meas[fao56.DayDate(states[i].Date)]; ok {
			obs = append(obs, o)
			sim = append(sim, sel(&states[i]))
		}
	}
	return
}

// Totals are cumulative seasonal depths in mm.
type Totals struct {
	ETref, ETc, ETcadj, E, T    float64
	Rain, Irrig, Runoff, DP, DPe float64
	NumAutoIrr                  int
}

// Sum accumulates seasonal totals over a run.
func Sum(states []fao56.DailyState) Totals {
	var t Totals
	for i := range states {
		s := &states[i]
		t.ETref += s.ETref
		t.ETc += s.ETc
		t.ETcadj += s.ETcadj
		t.E += s.E
		t.T += s.T
		t.Rain += s.Rain
		t.Irrig += s.Irrig
		t.Runoff += s.Runoff
		t.DP += s.DP
		t.DPe += s.DPe
		if s.AutoIrr {
			t.NumAutoIrr++
		}
	}
	return t
}
