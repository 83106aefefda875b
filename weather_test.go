package fao56

import (
	"math"
	"path/filepath"
	"testing"
	"time"
)

func sampleWeather() *Weather {
	nan := math.NaN()
	w := NewWeather(testSite())
	t0 := time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC)
	w.Set(t0, WeatherDay{
		Srad: 27.2, Tmax: 34.1, Tmin: 18.3, Tdew: 12.0,
		RHmax: 88., RHmin: 30., Wndsp: 2.1, Rain: 0., ETref: 6.43,
	})
	w.Set(t0.AddDate(0, 0, 1), WeatherDay{
		Srad: 18.4, Tmax: 29.0, Tmin: 17.1, Tdew: nan,
		RHmax: nan, RHmin: nan, Wndsp: nan, Rain: 12.5, ETref: nan,
	})
	w.Set(t0.AddDate(0, 0, 2), WeatherDay{
		Srad: 24.0, Tmax: 31.5, Tmin: 16.8, Tdew: 13.2,
		RHmax: 91., RHmin: 34., Wndsp: 3.4, Rain: 0., ETref: nan,
		Forecast: true,
	})
	return w
}

func TestWeatherCSVRoundTrip(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "weather.csv")
	w := sampleWeather()
	if err := w.SaveCSV(fp); err != nil {
		t.Fatal(err)
	}
	r, err := LoadWeatherCSV(fp, testSite())
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Days) != len(w.Days) {
		t.Fatalf("got %d records, want %d", len(r.Days), len(w.Days))
	}
	for dt, want := range w.Days {
		got, ok := r.Day(dt)
		if !ok {
			t.Fatalf("%s: missing after round trip", FormatDOY(dt))
		}
		if got.Forecast != want.Forecast {
			t.Errorf("%s: forecast flag %v, want %v", FormatDOY(dt), got.Forecast, want.Forecast)
		}
		// NaNs survive as NaNs, numbers as numbers
		for _, p := range []struct {
			name     string
			g, w     float64
		}{
			{"Srad", got.Srad, want.Srad},
			{"Tdew", got.Tdew, want.Tdew},
			{"RHmin", got.RHmin, want.RHmin},
			{"Rain", got.Rain, want.Rain},
			{"ETref", got.ETref, want.ETref},
		} {
			switch {
			case math.IsNaN(p.w):
				if !math.IsNaN(p.g) {
					t.Errorf("%s %s: got %f, want NaN", FormatDOY(dt), p.name, p.g)
				}
			case math.Abs(p.g-p.w) > 1e-9:
				t.Errorf("%s %s: got %f, want %f", FormatDOY(dt), p.name, p.g, p.w)
			}
		}
	}
}

func TestWeatherGobRoundTrip(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "weather.gob")
	w := sampleWeather()
	if err := w.SaveGob(fp); err != nil {
		t.Fatal(err)
	}
	r, err := LoadGobWeather(fp)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Days) != len(w.Days) {
		t.Fatalf("got %d records, want %d", len(r.Days), len(w.Days))
	}
	if r.Loc != w.Loc {
		t.Errorf("site changed: %+v != %+v", r.Loc, w.Loc)
	}
}

func TestWeatherETref(t *testing.T) {
	w := sampleWeather()
	t0 := time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC)

	// precomputed value is passed through untouched
	et, err := w.ETref(t0)
	if err != nil {
		t.Fatal(err)
	}
	if et != 6.43 {
		t.Errorf("got %f, want the stored 6.43", et)
	}

	// a record without one falls back to the standardized equation
	et, err = w.ETref(t0.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(et) || et <= 0. || et > 15. {
		t.Errorf("computed ETref=%f implausible", et)
	}

	if _, err := w.ETref(t0.AddDate(0, 0, 30)); err == nil {
		t.Error("missing date did not error")
	}
}

func TestParametersRoundTrip(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "par.txt")
	p := DefaultParameters()
	p.Kcbmid, p.Lmid, p.CN2 = 1.15, 45, 78.

	if err := p.Save(fp); err != nil {
		t.Fatal(err)
	}
	r, err := LoadParameters(fp)
	if err != nil {
		t.Fatal(err)
	}
	if r != p {
		t.Errorf("round trip changed the set:\n got %+v\nwant %+v", r, p)
	}
}

func TestLoadParametersRejectsBadValues(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "par.txt")
	p := DefaultParameters()
	p.ThetaWP = p.ThetaFC + 0.1 // physically inconsistent
	if err := p.Save(fp); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadParameters(fp); err == nil {
		t.Error("inconsistent parameter file accepted")
	}
}
