// fao56 runs a daily dual crop coefficient soil water balance from a
// YAML scenario file and writes the simulated season to CSV, text, and
// chart outputs.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/joho/godotenv"
	"github.com/maseology/mmio"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/agroclim/fao56"
	"github.com/agroclim/fao56/forecast"
	"github.com/agroclim/fao56/postpro"
	"github.com/agroclim/fao56/refet"
)

type scenario struct {
	Title string `yaml:"title"`
	Start string `yaml:"start"` // yyyy-mm-dd
	End   string `yaml:"end"`

	Site struct {
		Elev       float64 `yaml:"elev"`
		Lat        float64 `yaml:"lat"`
		WindHeight float64 `yaml:"wind_height"`
		RefCrop    string  `yaml:"ref_crop"` // short | tall
	} `yaml:"site"`

	Parameters   string `yaml:"parameters"`
	Weather      string `yaml:"weather"`
	WeatherCache string `yaml:"weather_cache"` // gob cache of the weather series
	Soil         string `yaml:"soil"`
	Irrigation   string `yaml:"irrigation"`
	Update       string `yaml:"update"`

	Depletion string `yaml:"depletion"` // table | constant
	Stress    string `yaml:"stress"`    // linear | curvilinear
	Runoff    string `yaml:"runoff"`    // none | curve_number

	Forecast *struct {
		Lon float64 `yaml:"lon"`
	} `yaml:"forecast"`

	AutoIrrigate     []autoSet `yaml:"autoirrigate"`
	AutoIrrigateFile string    `yaml:"autoirrigate_file"` // CSV of saved condition sets

	Output struct {
		Dir    string `yaml:"dir"`
		Charts bool   `yaml:"charts"`
	} `yaml:"output"`
}

// autoSet mirrors AutoIrrigateSet with pointers so unset controls stay
// unconstrained.
type autoSet struct {
	Start string   `yaml:"start"`
	End   string   `yaml:"end"`
	ALRE  *bool    `yaml:"alre"`
	IDOW  string   `yaml:"idow"`
	Dsli  *float64 `yaml:"dsli"`
	Dsle  *float64 `yaml:"dsle"`
	Evnt  *float64 `yaml:"evnt"`
	MAD   *float64 `yaml:"mad"`
	MADDr *float64 `yaml:"mad_dr"`
	Ksc   *float64 `yaml:"ksc"`
	FpDep *float64 `yaml:"fpdep"`
	FpDay *float64 `yaml:"fpday"`
	FpAct string   `yaml:"fpact"`
	Icon  *float64 `yaml:"icon"`
	Iper  *float64 `yaml:"iper"`
	Itdr  *float64 `yaml:"itdr"`
	Itfdr *float64 `yaml:"itfdr"`
	Ietrd *float64 `yaml:"ietrd"`
	Ietri *bool    `yaml:"ietri"`
	Ietre *bool    `yaml:"ietre"`
	Ieff  *float64 `yaml:"ieff"`
	Imin  *float64 `yaml:"imin"`
	Imax  *float64 `yaml:"imax"`
}

func main() {
	scnfp := flag.String("s", "scenario.yml", "scenario file")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	godotenv.Load() // optional .env; absence is fine

	var lg *zap.Logger
	var err error
	if *verbose {
		lg, err = zap.NewDevelopment()
	} else {
		lg, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lg.Sync()

	tt := mmio.NewTimer()
	if err := run(*scnfp, lg); err != nil {
		lg.Fatal("run failed", zap.Error(err))
	}
	tt.Lap("\nRun complete.")
}

func run(scnfp string, lg *zap.Logger) error {
	b, err := os.ReadFile(scnfp)
	if err != nil {
		return err
	}
	var scn scenario
	if err := yaml.Unmarshal(b, &scn); err != nil {
		return fmt.Errorf("scenario %s: %w", scnfp, err)
	}

	start, err := time.Parse("2006-01-02", scn.Start)
	if err != nil {
		return fmt.Errorf("scenario start: %w", err)
	}
	end, err := time.Parse("2006-01-02", scn.End)
	if err != nil {
		return fmt.Errorf("scenario end: %w", err)
	}

	par, err := fao56.LoadParameters(scn.Parameters)
	if err != nil {
		return err
	}

	loc := fao56.Site{
		RefCrop:    refet.ParseSurface(scn.Site.RefCrop),
		Elev:       scn.Site.Elev,
		Lat:        scn.Site.Lat,
		WindHeight: scn.Site.WindHeight,
	}
	wth, err := loadWeather(scn, loc, lg)
	if err != nil {
		return err
	}

	if scn.Forecast != nil {
		fc := forecast.New(scn.Site.Lat, scn.Forecast.Lon, scn.Site.Elev, lg)
		fc.SetWindHeight(scn.Site.WindHeight)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		days, err := fc.Get(ctx)
		if err != nil {
			lg.Warn("forecast unavailable, continuing without", zap.Error(err))
		} else {
			forecast.Apply(wth, days)
		}
	}

	cfg := fao56.Config{
		Start: start, End: end,
		Par:     par,
		Weather: wth,
	}
	if scn.Soil != "" {
		if cfg.Soil, err = fao56.LoadSoilProfile(scn.Soil); err != nil {
			return err
		}
	}
	if scn.Irrigation != "" {
		if cfg.Irrigation, err = fao56.LoadIrrigationCSV(scn.Irrigation); err != nil {
			return err
		}
	}
	if scn.Update != "" {
		if cfg.Update, err = fao56.LoadUpdateCSV(scn.Update); err != nil {
			return err
		}
	}
	if scn.AutoIrrigateFile != "" || len(scn.AutoIrrigate) > 0 {
		ai := &fao56.AutoIrrigate{}
		if scn.AutoIrrigateFile != "" {
			if ai, err = fao56.LoadAutoIrrigateCSV(scn.AutoIrrigateFile); err != nil {
				return err
			}
		}
		// inline sets follow file sets, so they win on overlap
		for _, ys := range scn.AutoIrrigate {
			s, err := ys.toSet(start, end)
			if err != nil {
				return err
			}
			ai.AddSet(s)
		}
		cfg.AutoIrrigate = ai
	}
	if cfg.Depletion, err = parseDepletion(scn.Depletion); err != nil {
		return err
	}
	if cfg.Stress, err = parseStress(scn.Stress); err != nil {
		return err
	}
	if cfg.Runoff, err = parseRunoff(scn.Runoff); err != nil {
		return err
	}

	ndays := int(fao56.DayDate(end).Sub(fao56.DayDate(start)).Hours()/24.) + 1
	uiprogress.Start()
	bar := uiprogress.AddBar(ndays).AppendCompleted().PrependElapsed()
	cfg.OnDay = func(s *fao56.DailyState) { bar.Incr() }

	mdl, err := fao56.New(cfg)
	if err != nil {
		return err
	}
	states, err := mdl.Run()
	uiprogress.Stop()
	if err != nil {
		return err
	}

	outdir := scn.Output.Dir
	if outdir == "" {
		outdir = "."
	}
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return err
	}
	if err := fao56.SaveStatesCSV(filepath.Join(outdir, "season.csv"), states); err != nil {
		return err
	}
	if err := fao56.SaveStatesText(filepath.Join(outdir, "season.txt"), states); err != nil {
		return err
	}
	if scn.Output.Charts {
		for _, p := range []struct {
			fn   func([]fao56.DailyState, string) error
			name string
		}{
			{postpro.PlotDepletion, "depletion.png"},
			{postpro.PlotET, "et.png"},
			{postpro.PlotCumulative, "cumulative.png"},
		} {
			if err := p.fn(states, filepath.Join(outdir, p.name)); err != nil {
				return err
			}
		}
	}

	tot := postpro.Sum(states)
	lg.Info("season totals",
		zap.String("title", scn.Title),
		zap.Int("days", len(states)),
		zap.Float64("ETref_mm", tot.ETref),
		zap.Float64("ETcadj_mm", tot.ETcadj),
		zap.Float64("rain_mm", tot.Rain),
		zap.Float64("irrigation_mm", tot.Irrig),
		zap.Int("auto_irrigations", tot.NumAutoIrr),
		zap.Float64("runoff_mm", tot.Runoff),
		zap.Float64("deep_percolation_mm", tot.DP))
	return nil
}

// loadWeather prefers the gob cache when present, falling back to (and
// refreshing the cache from) the CSV source.
func loadWeather(scn scenario, loc fao56.Site, lg *zap.Logger) (*fao56.Weather, error) {
	if scn.WeatherCache != "" {
		if w, err := fao56.LoadGobWeather(scn.WeatherCache); err == nil {
			lg.Debug("weather loaded from cache", zap.String("file", scn.WeatherCache))
			return w, nil
		}
	}
	w, err := fao56.LoadWeatherCSV(scn.Weather, loc)
	if err != nil {
		return nil, err
	}
	if scn.WeatherCache != "" {
		if err := w.SaveGob(scn.WeatherCache); err != nil {
			lg.Warn("weather cache not written", zap.Error(err))
		}
	}
	return w, nil
}

func (ys *autoSet) toSet(start, end time.Time) (fao56.AutoIrrigateSet, error) {
	if ys.Start != "" {
		t, err := time.Parse("2006-01-02", ys.Start)
		if err != nil {
			return fao56.AutoIrrigateSet{}, fmt.Errorf("autoirrigate start: %w", err)
		}
		start = t
	}
	if ys.End != "" {
		t, err := time.Parse("2006-01-02", ys.End)
		if err != nil {
			return fao56.AutoIrrigateSet{}, fmt.Errorf("autoirrigate end: %w", err)
		}
		end = t
	}
	s := fao56.DefaultAutoIrrigateSet(start, end)

	fv := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	bv := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	bv(&s.ALRE, ys.ALRE)
	if ys.IDOW != "" {
		s.IDOW = ys.IDOW
	}
	fv(&s.Dsli, ys.Dsli)
	fv(&s.Dsle, ys.Dsle)
	fv(&s.Evnt, ys.Evnt)
	fv(&s.MAD, ys.MAD)
	fv(&s.MADDr, ys.MADDr)
	fv(&s.Ksc, ys.Ksc)
	fv(&s.FpDep, ys.FpDep)
	fv(&s.FpDay, ys.FpDay)
	if ys.FpAct != "" {
		s.FpAct = ys.FpAct
	}
	// an explicit amount method supersedes the default deficit refill
	if ys.Icon != nil || ys.Itdr != nil || ys.Itfdr != nil || ys.Ietrd != nil ||
		(ys.Ietri != nil && *ys.Ietri) || (ys.Ietre != nil && *ys.Ietre) {
		s.Iper = math.NaN()
	}
	fv(&s.Icon, ys.Icon)
	fv(&s.Iper, ys.Iper)
	fv(&s.Itdr, ys.Itdr)
	fv(&s.Itfdr, ys.Itfdr)
	fv(&s.Ietrd, ys.Ietrd)
	bv(&s.Ietri, ys.Ietri)
	bv(&s.Ietre, ys.Ietre)
	fv(&s.Ieff, ys.Ieff)
	fv(&s.Imin, ys.Imin)
	fv(&s.Imax, ys.Imax)
	return s, nil
}

func parseDepletion(code string) (fao56.DepletionStrategy, error) {
	switch code {
	case "", "table":
		return fao56.DepletionTable, nil
	case "constant":
		return fao56.DepletionConstant, nil
	}
	return 0, fmt.Errorf("unknown depletion strategy %q", code)
}

func parseStress(code string) (fao56.StressStrategy, error) {
	switch code {
	case "", "linear":
		return fao56.StressLinear, nil
	case "curvilinear":
		return fao56.StressCurvilinear, nil
	}
	return 0, fmt.Errorf("unknown stress strategy %q", code)
}

func parseRunoff(code string) (fao56.RunoffStrategy, error) {
	switch code {
	case "", "none":
		return fao56.RunoffNone, nil
	case "curve_number":
		return fao56.RunoffCurveNumber, nil
	}
	return 0, fmt.Errorf("unknown runoff strategy %q", code)
}
