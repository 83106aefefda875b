package fao56

import (
	"math"
	"time"

	"github.com/agroclim/fao56/refet"
)

// advance computes day i (date t) from the carried state and the day's
// inputs, following FAO-56 chapter 7 with the dual crop coefficient.
func (m *Model) advance(i int, t time.Time) (DailyState, error) {
	par := &m.cfg.Par
	site := m.cfg.Weather.Site()

	wx, ok := m.cfg.Weather.Day(t)
	if !ok {
		return DailyState{}, &DataGapError{Date: t}
	}

	// basal crop coefficient from the growth-stage curve
	// (FAO-56 Tables 11 and 17); an override replaces the curve value
	// before height and root depth are derived, so both track it
	kcb := kcbCurve(par, i)
	var upd UpdateRecord
	haveUpd := false
	if m.cfg.Update != nil {
		upd, haveUpd = m.cfg.Update.Record(t)
	}
	if haveUpd {
		kcb = override(kcb, upd.Kcb)
	}

	// plant height and root depth track Kcb progression and never
	// shrink within a season (FAO-56 p. 277, 279)
	g := (kcb - par.Kcbini) / (par.Kcbmid - par.Kcbini)
	m.h = math.Max(math.Max(par.Hini+(par.Hmax-par.Hini)*g, 0.001), m.h)
	if haveUpd {
		m.h = override(m.h, upd.H)
	}
	m.zr = math.Max(math.Max(par.Zrini+(par.Zrmax-par.Zrini)*g, 0.001), m.zr)

	// root-zone capacity: layer-aggregated when a profile is supplied
	// (FAO-56 Eq. 82)
	thFC, thWP := par.ThetaFC, par.ThetaWP
	if m.cfg.Soil != nil {
		thFC, thWP, _ = m.cfg.Soil.RootZone(m.zr)
	}
	taw := 1000. * (thFC - thWP) * m.zr
	if taw <= 0 {
		return DailyState{}, &DomainError{Date: t, Quantity: "TAW", Value: taw}
	}

	// depletion fraction and readily available water
	// (FAO-56 p. 162, Table 22, Eq. 83)
	p := par.Pbase
	if m.cfg.Depletion == DepletionTable {
		p = clamp(par.Pbase+0.04*(5.-m.etcPrev), 0.1, 0.8)
	}
	raw := p * taw

	// transpiration reduction factor from the carried depletion
	ks := m.stress(m.dr, taw, raw)

	// reference ET: precomputed value, or the ASCE standardized equation
	etref := wx.ETref
	if math.IsNaN(etref) {
		etref = refet.Daily(refet.DailyInput{
			Surface: site.RefCrop, Elev: site.Elev, Lat: site.Lat,
			DOY: t.YearDay(), Srad: wx.Srad, Tmax: wx.Tmax, Tmin: wx.Tmin,
			Tdew: wx.Tdew, RHmax: wx.RHmax, RHmin: wx.RHmin,
			Wndsp: wx.Wndsp, Wndht: site.WindHeight,
		})
	}
	if math.IsNaN(etref) || etref < 0 {
		return DailyState{}, &DomainError{Date: t, Quantity: "ETref", Value: etref}
	}
	rain := wx.Rain
	if math.IsNaN(rain) {
		rain = 0
	}

	// upper limit crop coefficient (FAO-56 Eq. 72)
	wndsp := wx.Wndsp
	if math.IsNaN(wndsp) {
		wndsp = defaultWndsp
	}
	u2 := clamp(refet.WindAt2m(wndsp, site.WindHeight), 1., 6.)
	rhmin := wx.RHmin
	if math.IsNaN(rhmin) {
		rhmin = rhminFromDew(wx.Tmax, wx.Tdew, wx.Tmin)
	}
	rhmin = clamp(rhmin, 20., 80.)
	var kcmax float64
	if site.RefCrop == refet.Tall {
		kcmax = math.Max(1.0, kcb+0.05)
	} else {
		kcmax = math.Max(1.2+(0.04*(u2-2.)-0.004*(rhmin-45.))*math.Pow(m.h/3., 0.3), kcb+0.05)
	}

	// canopy cover fraction (FAO-56 Eq. 76)
	fc := clamp(math.Pow((kcb-par.Kcbini)/(kcmax-par.Kcbini), 1.+0.5*m.h), 0.0, 0.99)
	if haveUpd {
		fc = override(fc, upd.Fc)
	}

	// irrigation for the date: an explicit event suppresses the
	// autoirrigate decision engine
	var irrGross, irrNet, irrFw float64
	auto := false
	if m.cfg.Irrigation != nil {
		if ev, ok := m.cfg.Irrigation.Event(t); ok {
			irrGross = ev.Depth
			irrFw = ev.Fw
			eff := ev.Eff
			if eff <= 0 || math.IsNaN(eff) {
				eff = 100.
			}
			irrNet = ev.Depth * eff / 100.
		}
	}
	if irrGross == 0 && m.cfg.AutoIrrigate != nil {
		if set, ok := m.cfg.AutoIrrigate.ActiveSet(t); ok {
			if dep := m.decideAuto(&set, t, ks, m.dr, taw, raw, rain); dep > 0 {
				irrGross = dep
				irrNet = dep // efficiency already applied to the gross amount
				if !unconstrained(set.Ieff) && set.Ieff > 0 {
					irrNet = dep * set.Ieff / 100.
				}
				irrFw = 1.0 // autoirrigation wets the whole surface
				auto = true
			}
		}
	}

	// fraction of soil surface wetted (FAO-56 Table 20)
	switch {
	case irrGross > 0:
		m.fw = irrFw
	case rain >= 3.0:
		m.fw = 1.0
	}

	// exposed and wetted soil fraction (FAO-56 Eq. 75)
	few := clamp(math.Min(1.-fc, m.fw), 0.01, 1.0)

	// evaporation reduction and coefficient (FAO-56 Eqs. 74 and 71)
	kr := clamp((m.tew-m.de)/(m.tew-m.rew), 0., 1.)
	ke := math.Min(kr*(kcmax-kcb), few*kcmax)
	e := ke * etref

	// curve-number runoff from the carried surface wetness
	runoff := 0.
	if m.cfg.Runoff == RunoffCurveNumber && rain > 0 {
		cn := adjustCN(par.CN2, m.de, m.rew, m.tew)
		runoff = cnRunoff(rain, cn)
	}
	effRain := rain - runoff // never negative: cnRunoff is bounded by rain

	// percolation under exposed soil and the surface evaporation layer
	// (FAO-56 Eqs. 79, 77 and 78)
	dpe := math.Max(effRain+irrNet/m.fw-m.de, 0.)
	de := clamp(m.de-effRain-irrNet/m.fw+e/few+dpe, 0., m.tew)

	// crop ET (FAO-56 Eqs. 69 and 80)
	kc := ke + kcb
	etc := kc * etref
	kcadj := ks*kcb + ke
	etcadj := kcadj * etref
	tr := ks * kcb * etref

	// deep percolation and root-zone depletion (FAO-56 Eqs. 88, 85, 86):
	// water in excess of the pre-update depletion drains the same day
	dp := math.Max(effRain+irrNet-etcadj-m.dr, 0.)
	dr := clamp(m.dr-effRain-irrNet+etcadj+dp, 0., taw)

	if math.IsNaN(dr) || math.IsNaN(de) {
		return DailyState{}, &DomainError{Date: t, Quantity: "Dr/De", Value: math.NaN()}
	}

	// carry state
	m.de, m.dr = de, dr
	m.etcPrev = etc

	return DailyState{
		Date: t, ETref: etref, Kcb: kcb, H: m.h, Kcmax: kcmax, Fc: fc,
		Fw: m.fw, Few: few, De: de, Kr: kr, Ke: ke, E: e, DPe: dpe,
		Kc: kc, ETc: etc, TAW: taw, RAW: raw, P: p, Zr: m.zr, Ks: ks,
		Kcadj: kcadj, ETcadj: etcadj, T: tr, DP: dp, Dr: dr,
		FDr: dr / taw, Irrig: irrGross, AutoIrr: auto, Rain: rain,
		Runoff: runoff,
	}, nil
}

// kcbCurve evaluates the piecewise-linear growth-stage curve at day index
// i from the simulation start (FAO-56 Tables 11 and 17).
func kcbCurve(par *Parameters, i int) float64 {
	s1 := par.Lini
	s2 := s1 + par.Ldev
	s3 := s2 + par.Lmid
	s4 := s3 + par.Lend
	switch {
	case i <= s1:
		return par.Kcbini
	case i <= s2:
		return par.Kcbini + (par.Kcbmid-par.Kcbini)*float64(i-s1)/float64(s2-s1)
	case i <= s3:
		return par.Kcbmid
	case i <= s4:
		return par.Kcbmid + (par.Kcbend-par.Kcbmid)*float64(i-s3)/float64(s4-s3)
	default:
		return par.Kcbend
	}
}

// stress computes Ks for the configured formulation. Both forms give
// Ks=1 at Dr<=RAW and Ks=0 at Dr>=TAW.
func (m *Model) stress(dr, taw, raw float64) float64 {
	if dr <= raw {
		return 1.
	}
	if dr >= taw {
		return 0.
	}
	x := (dr - raw) / (taw - raw)
	if m.cfg.Stress == StressCurvilinear {
		// convex-exponential onset (AquaCrop water-stress form)
		const fs = 2.89
		return clamp(1.-(math.Exp(x*fs)-1.)/(math.Exp(fs)-1.), 0., 1.)
	}
	return clamp(1.-x, 0., 1.) // FAO-56 Eq. 84
}

// rhminFromDew estimates RHmin from dewpoint (or Tmin as its proxy) when
// the observation is missing.
func rhminFromDew(tmax, tdew, tmin float64) float64 {
	if math.IsNaN(tdew) {
		tdew = tmin
	}
	if math.IsNaN(tdew) || math.IsNaN(tmax) {
		return defaultRHmin
	}
	emax := 0.6108 * math.Exp(17.27*tmax/(tmax+237.3))
	ea := 0.6108 * math.Exp(17.27*tdew/(tdew+237.3))
	return ea / emax * 100.
}
