package fao56

import (
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/agroclim/fao56/refet"
	"github.com/maseology/mmio"
)

// Site holds the weather station constants needed for reference ET.
type Site struct {
	RefCrop    refet.Surface // short (grass) or tall (alfalfa) reference
	Elev       float64       // station elevation (m)
	Lat        float64       // station latitude (decimal degrees)
	WindHeight float64       // anemometer height (m)
}

// WeatherDay is one day's weather record. Optional observations are NaN
// when absent; ETref is NaN when not precomputed.
type WeatherDay struct {
	Srad     float64 // incoming solar radiation (MJ/m²)
	Tmax     float64 // daily maximum air temperature (°C)
	Tmin     float64 // daily minimum air temperature (°C)
	Tdew     float64 // daily average dew point temperature (°C)
	RHmax    float64 // daily maximum relative humidity (%)
	RHmin    float64 // daily minimum relative humidity (%)
	Wndsp    float64 // daily average wind speed (m/s)
	Rain     float64 // daily precipitation (mm)
	ETref    float64 // daily reference ET (mm), NaN to compute
	Forecast bool    // predicted rather than measured record
}

// WeatherProvider is the capability interface the engine consumes: anything
// that can produce a daily record for a date and the site constants.
type WeatherProvider interface {
	Site() Site
	Day(t time.Time) (WeatherDay, bool)
}

// Weather is the file-backed WeatherProvider implementation.
type Weather struct {
	Loc  Site
	Days map[time.Time]WeatherDay
}

// NewWeather returns an empty series for the given site.
func NewWeather(loc Site) *Weather {
	return &Weather{Loc: loc, Days: map[time.Time]WeatherDay{}}
}

func (w *Weather) Site() Site { return w.Loc }

// Day returns the record for t, reporting absence explicitly.
func (w *Weather) Day(t time.Time) (WeatherDay, bool) {
	d, ok := w.Days[DayDate(t)]
	return d, ok
}

// Set adds or replaces the record for t.
func (w *Weather) Set(t time.Time, d WeatherDay) { w.Days[DayDate(t)] = d }

// ETref returns the day's reference ET, computing it with the ASCE
// standardized equation when the record carries none.
func (w *Weather) ETref(t time.Time) (float64, error) {
	d, ok := w.Day(t)
	if !ok {
		return 0, &DataGapError{Date: DayDate(t)}
	}
	if !math.IsNaN(d.ETref) {
		return d.ETref, nil
	}
	return refet.Daily(refet.DailyInput{
		Surface: w.Loc.RefCrop,
		Elev:    w.Loc.Elev,
		Lat:     w.Loc.Lat,
		DOY:     t.YearDay(),
		Srad:    d.Srad,
		Tmax:    d.Tmax,
		Tmin:    d.Tmin,
		Tdew:    d.Tdew,
		RHmax:   d.RHmax,
		RHmin:   d.RHmin,
		Wndsp:   d.Wndsp,
		Wndht:   w.Loc.WindHeight,
	}), nil
}

// dates returns the series dates in order.
func (w *Weather) dates() []time.Time {
	ts := make([]time.Time, 0, len(w.Days))
	for t := range w.Days {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	return ts
}

// SaveCSV writes the series as Date,Srad,...,ETref,MorP rows.
func (w *Weather) SaveCSV(fp string) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("Date,Srad,Tmax,Tmin,Tdew,RHmax,RHmin,Wndsp,Rain,ETref,MorP"); err != nil {
		return fmt.Errorf("weather.SaveCSV: %w", err)
	}
	for _, t := range w.dates() {
		d := w.Days[t]
		morp := "M"
		if d.Forecast {
			morp = "P"
		}
		csvw.WriteLine(FormatDOY(t), d.Srad, d.Tmax, d.Tmin, d.Tdew,
			d.RHmax, d.RHmin, d.Wndsp, d.Rain, d.ETref, morp)
	}
	return nil
}

// LoadWeatherCSV reads a series written by SaveCSV. mmio's date-value csv
// readers carry one value per date; the nine-column weather record is
// parsed directly.
func LoadWeatherCSV(fp string, loc Site) (*Weather, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadWeatherCSV: %w", err)
	}
	defer f.Close()
	rdr := csv.NewReader(f)
	recs, err := rdr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("LoadWeatherCSV: %w", err)
	}
	w := NewWeather(loc)
	for i, rec := range recs {
		if i == 0 && rec[0] == "Date" {
			continue
		}
		if len(rec) < 11 {
			return nil, &ConfigError{Component: "weather", Reason: fmt.Sprintf("row %d: %d columns, want 11", i+1, len(rec))}
		}
		t, err := ParseDOY(rec[0])
		if err != nil {
			return nil, &ConfigError{Component: "weather", Reason: fmt.Sprintf("row %d: bad date %q", i+1, rec[0])}
		}
		var v [9]float64
		for j := 0; j < 9; j++ {
			v[j], err = parseNaN(rec[j+1])
			if err != nil {
				return nil, &ConfigError{Component: "weather", Reason: fmt.Sprintf("row %d col %d: %v", i+1, j+2, err)}
			}
		}
		w.Set(t, WeatherDay{
			Srad: v[0], Tmax: v[1], Tmin: v[2], Tdew: v[3],
			RHmax: v[4], RHmin: v[5], Wndsp: v[6], Rain: v[7], ETref: v[8],
			Forecast: rec[10] == "P",
		})
	}
	return w, nil
}

func parseNaN(s string) (float64, error) {
	if s == "" || s == "NaN" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// SaveGob caches the parsed series.
func (w *Weather) SaveGob(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("weather.SaveGob: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(w); err != nil {
		return fmt.Errorf("weather.SaveGob: %w", err)
	}
	return nil
}

// LoadGobWeather restores a series cached by SaveGob.
func LoadGobWeather(fp string) (*Weather, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var w Weather
	if err := gob.NewDecoder(f).Decode(&w); err != nil {
		return nil, err
	}
	return &w, nil
}
