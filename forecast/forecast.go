// Package forecast retrieves seven-day weather forecasts from the
// National Digital Forecast Database (NDFD) REST service for
// forecast-aware irrigation scheduling. Solar radiation is not served
// directly; it is estimated from forecasted cloud cover and clear-sky
// radiation when an elevation is supplied.
package forecast

import (
	"context"
	"encoding/xml"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/agroclim/fao56"
	"github.com/agroclim/fao56/refet"
)

// DefaultBaseURL is the NDFD XML client endpoint.
const DefaultBaseURL = "https://graphical.weather.gov/xml/sample_products/browser_interface/ndfdXMLclient.php"

// Day is one forecasted day. Fields without forecast values are NaN.
type Day struct {
	Srad  float64 // incoming solar radiation (MJ/m²), from cloud cover
	Tmax  float64 // °C
	Tmin  float64 // °C
	Tdew  float64 // °C
	Wndsp float64 // m/s
	Rain  float64 // liquid precipitation (mm)
}

// Client fetches NDFD forecasts for one site.
type Client struct {
	http *resty.Client
	log  *zap.Logger

	lat, lon float64
	elev     float64 // m; NaN disables the solar radiation estimate
	wndht    float64 // station anemometer height (m)
}

// New returns a client for the site. Pass math.NaN() for elev to skip
// solar radiation estimation.
func New(lat, lon, elev float64, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http: resty.New().SetBaseURL(DefaultBaseURL).SetTimeout(30 * time.Second),
		log:  log.Named("forecast"),
		lat:  lat, lon: lon, elev: elev, wndht: 2.,
	}
}

// SetBaseURL overrides the NDFD endpoint (testing, proxies).
func (c *Client) SetBaseURL(u string) { c.http.SetBaseURL(u) }

// SetWindHeight sets the anemometer height wind forecasts are converted
// to (default 2 m).
func (c *Client) SetWindHeight(h float64) {
	if h > 0 {
		c.wndht = h
	}
}

// NDFD XML layout: a dwml document with time-layouts keyed by layout-key
// and parameter series referencing them.
type dwml struct {
	Data struct {
		TimeLayouts []timeLayout `xml:"time-layout"`
		Parameters  struct {
			Temperature []series `xml:"temperature"`
			WindSpeed   []series `xml:"wind-speed"`
			Precip      []series `xml:"precipitation"`
			Cloud       []series `xml:"cloud-amount"`
		} `xml:"parameters"`
	} `xml:"data"`
}

type timeLayout struct {
	Key   string   `xml:"layout-key"`
	Start []string `xml:"start-valid-time"`
}

type series struct {
	Type   string   `xml:"type,attr"`
	Layout string   `xml:"time-layout,attr"`
	Values []string `xml:"value"`
}

// Get requests and processes the seven-day forecast from today forward.
func (c *Client) Get(ctx context.Context) (map[time.Time]Day, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":     fmt.Sprintf("%.6f", c.lat),
			"lon":     fmt.Sprintf("%.6f", c.lon),
			"product": "time-series",
			"Unit":    "m",
			"sky":     "sky",
			"maxt":    "maxt",
			"mint":    "mint",
			"dew":     "dew",
			"wspd":    "wspd",
			"qpf":     "qpf",
		}).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("forecast: NDFD request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("forecast: NDFD status %d", resp.StatusCode())
	}
	days, err := c.parse(resp.Body())
	if err != nil {
		return nil, err
	}
	c.log.Info("NDFD forecast retrieved",
		zap.Int("days", len(days)),
		zap.Float64("lat", c.lat), zap.Float64("lon", c.lon))
	return days, nil
}

func (c *Client) parse(body []byte) (map[time.Time]Day, error) {
	var doc dwml
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("forecast: NDFD response: %w", err)
	}

	layouts := map[string][]string{}
	for _, tl := range doc.Data.TimeLayouts {
		layouts[tl.Key] = tl.Start
	}

	// daily means per element, keyed by the valid date
	nan := math.NaN()
	days := map[time.Time]Day{}
	get := func(t time.Time) Day {
		if d, ok := days[t]; ok {
			return d
		}
		return Day{Srad: nan, Tmax: nan, Tmin: nan, Tdew: nan, Wndsp: nan, Rain: nan}
	}

	assign := func(ss []series, typ string, set func(*Day, float64)) {
		for _, s := range ss {
			if s.Type != typ {
				continue
			}
			for t, v := range dailyMeans(s, layouts) {
				d := get(t)
				set(&d, v)
				days[t] = d
			}
		}
	}
	assign(doc.Data.Parameters.Temperature, "maximum", func(d *Day, v float64) { d.Tmax = v })
	assign(doc.Data.Parameters.Temperature, "minimum", func(d *Day, v float64) { d.Tmin = v })
	assign(doc.Data.Parameters.Temperature, "dew point", func(d *Day, v float64) { d.Tdew = v })
	// NDFD winds are forecast at 10 m; convert to the station anemometer
	// height via the 2-m standard (ASCE (2005) Eq. 33)
	assign(doc.Data.Parameters.WindSpeed, "sustained", func(d *Day, v float64) {
		u2 := refet.WindAt2m(v, 10.)
		d.Wndsp = u2 * math.Log(67.8*c.wndht-5.42) / 4.87
	})
	assign(doc.Data.Parameters.Precip, "liquid", func(d *Day, v float64) { d.Rain = v })
	assign(doc.Data.Parameters.Cloud, "total", func(d *Day, v float64) {
		d.Srad = 1. - v/100. // clear-sky fraction; scaled to MJ/m² below
	})

	// the unclouded share of clear-sky radiation
	if !math.IsNaN(c.elev) {
		for t, d := range days {
			if !math.IsNaN(d.Srad) {
				d.Srad *= refet.ClearSky(c.lat, c.elev, t.YearDay())
				days[t] = d
			}
		}
	}
	return days, nil
}

// dailyMeans averages a series' values per calendar date of their valid
// times. Empty values are skipped.
func dailyMeans(s series, layouts map[string][]string) map[time.Time]float64 {
	times := layouts[s.Layout]
	sums := map[time.Time]float64{}
	counts := map[time.Time]int{}
	for i, raw := range s.Values {
		if i >= len(times) || len(times[i]) < 10 || raw == "" {
			continue
		}
		var v float64
		if _, err := fmt.Sscanf(raw, "%f", &v); err != nil {
			continue
		}
		ts, err := time.Parse("2006-01-02", times[i][:10])
		if err != nil {
			continue
		}
		sums[ts] += v
		counts[ts]++
	}
	out := make(map[time.Time]float64, len(sums))
	for t, sum := range sums {
		out[t] = sum / float64(counts[t])
	}
	return out
}

// Apply merges forecasted days into a weather series as predicted
// records, leaving existing measured records in place.
func Apply(w *fao56.Weather, days map[time.Time]Day) {
	nan := math.NaN()
	for t, d := range days {
		if _, ok := w.Day(t); ok {
			continue // measured data wins
		}
		rain := d.Rain
		if math.IsNaN(rain) {
			rain = 0
		}
		w.Set(t, fao56.WeatherDay{
			Srad: d.Srad, Tmax: d.Tmax, Tmin: d.Tmin, Tdew: d.Tdew,
			RHmax: nan, RHmin: nan, Wndsp: d.Wndsp, Rain: rain,
			ETref: nan, Forecast: true,
		})
	}
}
