package fao56

import (
	"fmt"
	"time"
)

// DepletionStrategy selects how the depletion fraction p is obtained.
type DepletionStrategy int

const (
	// DepletionTable adjusts the FAO-56 table value for evaporative
	// demand: p = pbase + 0.04·(5 − ETc_prev), clamped to [0.1, 0.8].
	DepletionTable DepletionStrategy = iota
	// DepletionConstant uses the configured pbase as given.
	DepletionConstant
)

// StressStrategy selects the Ks formulation.
type StressStrategy int

const (
	// StressLinear is FAO-56 Eq. 84.
	StressLinear StressStrategy = iota
	// StressCurvilinear is the convex-exponential form with a more
	// gradual stress onset; both forms give Ks=1 at Dr=RAW and Ks=0 at
	// Dr=TAW.
	StressCurvilinear
)

// RunoffStrategy selects the surface runoff treatment.
type RunoffStrategy int

const (
	RunoffNone RunoffStrategy = iota
	// RunoffCurveNumber estimates runoff with the USDA-NRCS curve
	// number method, with CN adjusted for surface wetness from De.
	RunoffCurveNumber
)

// Config assembles the simulation window, the immutable inputs, and the
// optional collaborators. Optional fields default to absent; the engine
// branches on presence at well-defined points.
type Config struct {
	Start, End time.Time
	Par        Parameters
	Weather    WeatherProvider

	Irrigation   IrrigationProvider   // optional explicit schedule
	AutoIrrigate AutoIrrigateProvider // optional decision engine config
	Soil         SoilProvider         // optional stratified profile
	Update       UpdateProvider       // optional state overrides

	Depletion DepletionStrategy
	Stress    StressStrategy
	Runoff    RunoffStrategy

	// OnDay, when set, is called after each simulated day (progress
	// reporting); it must not retain the state pointer.
	OnDay func(s *DailyState)
}

// Model advances the two carried state variables (De, Dr) one day at a
// time over the window, emitting one DailyState per calendar day. A Model
// owns its carried state exclusively; independent realizations may run
// concurrently as separate instances over shared read-only inputs.
type Model struct {
	cfg Config

	tew float64 // total evaporable water (mm)
	rew float64 // readily evaporable water (mm)

	// carried state
	de, dr  float64 // surface evaporation depth, root-zone depletion (mm)
	h, zr   float64 // plant height, root depth (monotone through season)
	fw      float64 // wetted fraction of most recent wetting event
	etcPrev float64 // previous day's ETc for the p adjustment

	// per-day history for the autoirrigate decision engine
	etcadjHist []float64 // stress-adjusted ET per simulated day
	rainHist   []float64 // effective precipitation per simulated day
	irrHist    []float64 // gross irrigation per simulated day

	states []DailyState
	done   bool
}

// New validates the configuration and initializes the carried state.
// All structural problems fail here; no partial run is produced.
func New(cfg Config) (*Model, error) {
	if cfg.Weather == nil {
		return nil, &ConfigError{Component: "config", Reason: "no weather provider"}
	}
	if cfg.End.Before(cfg.Start) {
		return nil, &ConfigError{Component: "config",
			Reason: fmt.Sprintf("window end %s before start %s", FormatDOY(cfg.End), FormatDOY(cfg.Start))}
	}
	cfg.Start, cfg.End = DayDate(cfg.Start), DayDate(cfg.End)
	if err := cfg.Par.Validate(); err != nil {
		return nil, err
	}
	if cfg.Soil != nil {
		if err := cfg.Soil.Validate(cfg.Par.Zrmax); err != nil {
			return nil, err
		}
	}
	if ir, ok := cfg.Irrigation.(*Irrigation); ok && ir != nil {
		if err := ir.Validate(); err != nil {
			return nil, err
		}
	}
	if ai, ok := cfg.AutoIrrigate.(*AutoIrrigate); ok && ai != nil {
		if err := ai.Validate(); err != nil {
			return nil, err
		}
	}

	m := &Model{cfg: cfg}

	// surface layer constants; top-layer values when a profile is given
	fcs, wps, _ := cfg.Par.ThetaFC, cfg.Par.ThetaWP, 0.
	if cfg.Soil != nil {
		fcs, wps, _ = cfg.Soil.Surface()
	}
	m.tew = 1000. * (fcs - 0.5*wps) * cfg.Par.Ze // FAO-56 Eq. 73
	m.rew = cfg.Par.REW
	if m.tew <= 0 {
		return nil, &DomainError{Date: cfg.Start, Quantity: "TEW", Value: m.tew}
	}
	if m.rew >= m.tew {
		return nil, &ConfigError{Component: "parameters",
			Reason: fmt.Sprintf("REW (%g) must be below TEW (%g)", m.rew, m.tew)}
	}

	// initial states: surface layer fully depleted (FAO-56 p. 153),
	// root zone depleted by the initial water content deficit (Eq. 87)
	m.de = m.tew
	fc0, _, th0 := cfg.Par.ThetaFC, cfg.Par.ThetaWP, cfg.Par.Theta0
	if cfg.Soil != nil {
		fc0, _, th0 = cfg.Soil.RootZone(cfg.Par.Zrini)
	}
	m.dr = 1000. * (fc0 - th0) * cfg.Par.Zrini
	if m.dr < 0 {
		m.dr = 0
	}
	m.h = cfg.Par.Hini
	m.zr = cfg.Par.Zrini
	m.fw = 1.0
	m.etcPrev = 5.0 // neutral p adjustment on the first day

	return m, nil
}

// Run conducts the simulation from start to end, one record per calendar
// day in the closed window, in date order. Each day depends only on the
// previous day's carried state and that day's inputs. Run may be called
// once; the returned sequence is owned by the caller.
func (m *Model) Run() ([]DailyState, error) {
	if m.done {
		return nil, &ConfigError{Component: "model", Reason: "Run already called"}
	}
	m.done = true

	ndays := int(m.cfg.End.Sub(m.cfg.Start).Hours()/24.) + 1
	m.states = make([]DailyState, 0, ndays)
	m.etcadjHist = make([]float64, 0, ndays)
	m.rainHist = make([]float64, 0, ndays)
	m.irrHist = make([]float64, 0, ndays)

	for i, t := 0, m.cfg.Start; !t.After(m.cfg.End); i, t = i+1, t.AddDate(0, 0, 1) {
		s, err := m.advance(i, t)
		if err != nil {
			return nil, err
		}
		m.states = append(m.states, s)
		m.etcadjHist = append(m.etcadjHist, s.ETcadj)
		m.rainHist = append(m.rainHist, s.Rain-s.Runoff)
		m.irrHist = append(m.irrHist, s.Irrig)
		if m.cfg.OnDay != nil {
			m.cfg.OnDay(&s)
		}
	}
	return m.states, nil
}

// States returns the emitted sequence (read-only once Run completes).
func (m *Model) States() []DailyState { return m.states }
