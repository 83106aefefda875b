package fao56

import (
	"math"
	"path/filepath"
	"testing"
	"time"
)

// decisionModel builds a bare model with a seeded simulation history for
// exercising the decision engine directly.
func decisionModel(etcadj, rain, irr []float64) *Model {
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	return &Model{
		cfg: Config{
			Start: start, End: start.AddDate(0, 0, 60),
			Weather: drydownWeather(start, 61, 5.),
		},
		etcadjHist: etcadj, rainHist: rain, irrHist: irr,
	}
}

func TestAutoAmountMethods(t *testing.T) {
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	today := start.AddDate(0, 0, 5)
	nan := math.NaN()

	base := func() AutoIrrigateSet {
		s := DefaultAutoIrrigateSet(start, start.AddDate(0, 0, 60))
		s.ALRE = false
		s.Evnt = nan
		s.FpDep = nan // isolate the amount logic
		s.MAD = nan   // timing-gated only
		return s
	}

	// five prior days: 5 mm/d of adjusted ET, one 6 mm rain, one
	// irrigation of 10 mm on day 2
	etcadj := []float64{5, 5, 5, 5, 5}
	rain := []float64{0, 6, 0, 0, 0}
	irr := []float64{0, 0, 10, 0, 0}
	const dr, taw, raw = 30., 45., 22.5

	for _, tc := range []struct {
		name string
		mod  func(*AutoIrrigateSet)
		want float64
	}{
		{"default refills the deficit", func(s *AutoIrrigateSet) {}, dr},
		{"constant amount", func(s *AutoIrrigateSet) { s.Icon = 12. }, 12.},
		{"percent of depletion", func(s *AutoIrrigateSet) { s.Iper = 60. }, 0.6 * dr},
		{"target depletion", func(s *AutoIrrigateSet) { s.Itdr = 10. }, dr - 10.},
		{"target fractional depletion", func(s *AutoIrrigateSet) { s.Itfdr = 0.2 }, dr - 0.2*taw},
		{"replace net ET of last 3 days", func(s *AutoIrrigateSet) { s.Ietrd = 3. }, 15.},
		{"replace net ET since last irrigation", func(s *AutoIrrigateSet) { s.Ietri = true }, 10.},
		{"replace net ET since last watering", func(s *AutoIrrigateSet) { s.Ietre = true }, 10.},
		{"efficiency grosses up", func(s *AutoIrrigateSet) { s.Icon = 18.; s.Ieff = 75. }, 24.},
		{"minimum applied", func(s *AutoIrrigateSet) { s.Icon = 2.; s.Imin = 10. }, 10.},
		{"maximum applied", func(s *AutoIrrigateSet) { s.Imax = 20. }, 20.},
	} {
		m := decisionModel(etcadj, rain, irr)
		s := base()
		tc.mod(&s)
		if got := m.decideAuto(&s, today, 1., dr, taw, raw, 0.); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: got %f, want %f", tc.name, got, tc.want)
		}
	}
}

func TestAutoStressTriggers(t *testing.T) {
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	today := start.AddDate(0, 0, 5)
	nan := math.NaN()

	base := func() AutoIrrigateSet {
		s := DefaultAutoIrrigateSet(start, start.AddDate(0, 0, 60))
		s.ALRE = false
		s.Evnt = nan
		s.FpDep = nan
		s.MAD = nan
		return s
	}

	for _, tc := range []struct {
		name   string
		mod    func(*AutoIrrigateSet)
		ks, dr float64
		fires  bool
	}{
		{"MAD below threshold", func(s *AutoIrrigateSet) { s.MAD = 0.5 }, 1., 20., false},
		{"MAD above threshold", func(s *AutoIrrigateSet) { s.MAD = 0.4 }, 1., 20., true},
		{"absolute depletion below", func(s *AutoIrrigateSet) { s.MADDr = 25. }, 1., 20., false},
		{"absolute depletion above", func(s *AutoIrrigateSet) { s.MADDr = 15. }, 1., 20., true},
		{"Ks above threshold", func(s *AutoIrrigateSet) { s.Ksc = 0.8 }, 0.9, 20., false},
		{"Ks below threshold", func(s *AutoIrrigateSet) { s.Ksc = 0.8 }, 0.7, 20., true},
		{"either trigger suffices", func(s *AutoIrrigateSet) { s.MAD = 0.9; s.Ksc = 0.8 }, 0.7, 20., true},
		{"no trigger configured passes", func(s *AutoIrrigateSet) {}, 1., 20., true},
	} {
		m := decisionModel(nil, nil, nil)
		s := base()
		tc.mod(&s)
		got := m.decideAuto(&s, today, tc.ks, tc.dr, 45., 22.5, 0.)
		if (got > 0) != tc.fires {
			t.Errorf("%s: amount=%f, fires=%v, want %v", tc.name, got, got > 0, tc.fires)
		}
	}
}

func TestAutoTimingGates(t *testing.T) {
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	nan := math.NaN()

	base := func() AutoIrrigateSet {
		s := DefaultAutoIrrigateSet(start, start.AddDate(0, 0, 60))
		s.ALRE = false
		s.Evnt = nan
		s.FpDep = nan
		s.MAD = nan
		return s
	}

	// June 1 2021 is a Tuesday (day-of-week code 3)
	t.Run("day of week", func(t *testing.T) {
		m := decisionModel(nil, nil, nil)
		s := base()
		s.IDOW = "15" // Sundays and Thursdays only
		if got := m.decideAuto(&s, start, 1., 30., 45., 22.5, 0.); got != 0 {
			t.Errorf("Tuesday permitted despite IDOW=15 (got %f)", got)
		}
		thursday := start.AddDate(0, 0, 2)
		if got := m.decideAuto(&s, thursday, 1., 30., 45., 22.5, 0.); got == 0 {
			t.Error("Thursday blocked despite IDOW=15")
		}
	})

	t.Run("days since last irrigation", func(t *testing.T) {
		// irrigated on day 3; today is day 5
		m := decisionModel([]float64{5, 5, 5, 5, 5}, make([]float64, 5), []float64{0, 0, 0, 25, 0})
		today := start.AddDate(0, 0, 5)
		s := base()
		s.Dsli = 3.
		if got := m.decideAuto(&s, today, 1., 30., 45., 22.5, 0.); got != 0 {
			t.Errorf("fired %f only 2 days after irrigating with Dsli=3", got)
		}
		s.Dsli = 1.
		if got := m.decideAuto(&s, today, 1., 30., 45., 22.5, 0.); got == 0 {
			t.Error("blocked 2 days after irrigating with Dsli=1")
		}
	})

	t.Run("days since last watering counts qualifying rain", func(t *testing.T) {
		// 12 mm rain on day 4; today is day 5
		m := decisionModel([]float64{5, 5, 5, 5, 5}, []float64{0, 0, 0, 0, 12}, make([]float64, 5))
		today := start.AddDate(0, 0, 5)
		s := base()
		s.Dsle, s.Evnt = 2., 10.
		if got := m.decideAuto(&s, today, 1., 30., 45., 22.5, 0.); got != 0 {
			t.Errorf("fired %f the day after a 12 mm rain with Dsle=2", got)
		}
		s.Evnt = 15. // the rain no longer counts as an event
		if got := m.decideAuto(&s, today, 1., 30., 45., 22.5, 0.); got == 0 {
			t.Error("blocked by a rain below the event threshold")
		}
	})

	t.Run("rain today is a watering event", func(t *testing.T) {
		m := decisionModel([]float64{5}, []float64{0}, []float64{0})
		today := start.AddDate(0, 0, 1)
		s := base()
		s.Dsle, s.Evnt = 1., 10.
		if got := m.decideAuto(&s, today, 1., 30., 45., 22.5, 11.); got != 0 {
			t.Errorf("fired %f while 11 mm falls today with Dsle set", got)
		}
	})
}

func TestAutoForecastActions(t *testing.T) {
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	nan := math.NaN()

	// 15 mm forecast over the two days following today
	w := drydownWeather(start, 10, 5.)
	d, _ := w.Day(start.AddDate(0, 0, 6))
	d.Rain = 10.
	w.Set(start.AddDate(0, 0, 6), d)
	d, _ = w.Day(start.AddDate(0, 0, 7))
	d.Rain = 5.
	w.Set(start.AddDate(0, 0, 7), d)

	m := &Model{cfg: Config{Start: start, End: start.AddDate(0, 0, 9), Weather: w}}
	today := start.AddDate(0, 0, 5)

	base := func() AutoIrrigateSet {
		s := DefaultAutoIrrigateSet(start, start.AddDate(0, 0, 9))
		s.ALRE = false
		s.Evnt = nan
		s.MAD = nan
		s.FpDep, s.FpDay = 12., 3.
		return s
	}

	s := base()
	s.FpAct = "proceed"
	if got := m.decideAuto(&s, today, 1., 30., 45., 22.5, 0.); math.Abs(got-30.) > 1e-9 {
		t.Errorf("proceed: got %f, want the full 30", got)
	}
	s = base()
	s.FpAct = "cancel"
	if got := m.decideAuto(&s, today, 1., 30., 45., 22.5, 0.); got != 0 {
		t.Errorf("cancel: got %f, want 0", got)
	}
	s = base()
	s.FpAct = "reduce"
	if got := m.decideAuto(&s, today, 1., 30., 45., 22.5, 0.); math.Abs(got-15.) > 1e-9 {
		t.Errorf("reduce: got %f, want 30 less the 15 forecast", got)
	}
	// below the depth threshold the forecast is ignored entirely
	s = base()
	s.FpAct = "reduce"
	s.FpDep = 20.
	if got := m.decideAuto(&s, today, 1., 30., 45., 22.5, 0.); math.Abs(got-30.) > 1e-9 {
		t.Errorf("below threshold: got %f, want the full 30", got)
	}
}

func TestActiveSetLastDefinedWins(t *testing.T) {
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	august := time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC)

	early := DefaultAutoIrrigateSet(start, start.AddDate(0, 0, 120))
	early.MAD = 0.4
	late := DefaultAutoIrrigateSet(august, start.AddDate(0, 0, 120))
	late.MAD = 0.6

	ai := &AutoIrrigate{}
	ai.AddSet(early)
	ai.AddSet(late)
	if err := ai.Validate(); err != nil {
		t.Fatal(err)
	}

	if s, ok := ai.ActiveSet(start.AddDate(0, 0, 10)); !ok || s.MAD != 0.4 {
		t.Errorf("June: got MAD=%f ok=%v, want the early set", s.MAD, ok)
	}
	if s, ok := ai.ActiveSet(august.AddDate(0, 0, 10)); !ok || s.MAD != 0.6 {
		t.Errorf("August: got MAD=%f ok=%v, want the late set", s.MAD, ok)
	}
	if _, ok := ai.ActiveSet(start.AddDate(0, 0, 300)); ok {
		t.Error("a date outside every window returned a set")
	}
}

func TestAutoIrrigateSetValidation(t *testing.T) {
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 60)

	check := func(name string, mod func(*AutoIrrigateSet)) {
		s := DefaultAutoIrrigateSet(start, end)
		mod(&s)
		ai := &AutoIrrigate{Sets: []AutoIrrigateSet{s}}
		if err := ai.Validate(); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
	check("inverted window", func(s *AutoIrrigateSet) { s.Start, s.End = end, start })
	check("bad day-of-week code", func(s *AutoIrrigateSet) { s.IDOW = "128" })
	check("bad forecast action", func(s *AutoIrrigateSet) { s.FpAct = "maybe" })
	check("two amount methods", func(s *AutoIrrigateSet) { s.Icon = 10.; s.Itdr = 5. })

	good := DefaultAutoIrrigateSet(start, end)
	ai := &AutoIrrigate{Sets: []AutoIrrigateSet{good}}
	if err := ai.Validate(); err != nil {
		t.Errorf("default set rejected: %v", err)
	}
}

func TestAutoIrrigateCSVRoundTrip(t *testing.T) {
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 90)

	a := DefaultAutoIrrigateSet(start, end)
	a.IDOW = "246"
	a.Ksc = 0.85
	b := DefaultAutoIrrigateSet(start.AddDate(0, 0, 45), end)
	b.Iper = math.NaN()
	b.Icon = 20.
	b.FpAct = "reduce"
	ai := &AutoIrrigate{Sets: []AutoIrrigateSet{a, b}}

	fp := filepath.Join(t.TempDir(), "autoirr.csv")
	if err := ai.SaveCSV(fp); err != nil {
		t.Fatal(err)
	}
	r, err := LoadAutoIrrigateCSV(fp)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Sets) != 2 {
		t.Fatalf("got %d sets, want 2", len(r.Sets))
	}
	got := r.Sets[0]
	if !got.Start.Equal(a.Start) || !got.End.Equal(a.End) || got.IDOW != "246" ||
		got.Ksc != 0.85 || !got.ALRE || got.FpAct != "proceed" {
		t.Errorf("set 0 changed: %+v", got)
	}
	if !math.IsNaN(got.MADDr) || !math.IsNaN(got.Icon) {
		t.Error("set 0: unconstrained controls not NaN after round trip")
	}
	got = r.Sets[1]
	if got.Icon != 20. || !math.IsNaN(got.Iper) || got.FpAct != "reduce" {
		t.Errorf("set 1 changed: %+v", got)
	}
}
