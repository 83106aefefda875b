package refet

import (
	"math"
	"testing"
)

// greeleyJuly is the ASCE-EWRI example site: Greeley, Colorado on
// July 1 (doy 182), a clear warm day.
func greeleyJuly(s Surface) DailyInput {
	return DailyInput{
		Surface: s,
		Elev:    1462.4,
		Lat:     40.41,
		DOY:     182,
		Srad:    22.4,
		Tmax:    32.4,
		Tmin:    10.9,
		Tdew:    10.9,
		RHmax:   math.NaN(),
		RHmin:   math.NaN(),
		Wndsp:   1.94,
		Wndht:   3.,
	}
}

func TestDailyPlausibleRange(t *testing.T) {
	etos := Daily(greeleyJuly(Short))
	if etos < 4. || etos > 8. {
		t.Errorf("ETos=%f mm/d outside the plausible 4-8 range for a clear July day", etos)
	}
	etrs := Daily(greeleyJuly(Tall))
	if etrs < 5. || etrs > 10. {
		t.Errorf("ETrs=%f mm/d outside the plausible 5-10 range", etrs)
	}
	if etrs <= etos {
		t.Errorf("tall reference %f not above short reference %f", etrs, etos)
	}
}

func TestDailyRespondsToDrivers(t *testing.T) {
	base := Daily(greeleyJuly(Short))

	windy := greeleyJuly(Short)
	windy.Wndsp = 5.
	if Daily(windy) <= base {
		t.Error("more wind did not increase reference ET")
	}

	humid := greeleyJuly(Short)
	humid.Tdew = 20.
	if Daily(humid) >= base {
		t.Error("a wetter atmosphere did not decrease reference ET")
	}

	dim := greeleyJuly(Short)
	dim.Srad = 10.
	if Daily(dim) >= base {
		t.Error("less radiation did not decrease reference ET")
	}
}

func TestDailyHumidityFallbacks(t *testing.T) {
	// each fallback of the actual vapor pressure chain must yield a
	// physical ea below the saturation pressure
	in := greeleyJuly(Short)
	nan := math.NaN()

	in.Tdew = nan
	in.RHmax, in.RHmin = 84., 28.
	if et := Daily(in); et <= 0. || math.IsNaN(et) {
		t.Errorf("RHmax+RHmin fallback: ET=%f", et)
	}
	in.RHmin = nan
	if et := Daily(in); et <= 0. || math.IsNaN(et) {
		t.Errorf("RHmax-only fallback: ET=%f", et)
	}
	in.RHmax, in.RHmin = nan, 28.
	if et := Daily(in); et <= 0. || math.IsNaN(et) {
		t.Errorf("RHmin-only fallback: ET=%f", et)
	}
	in.RHmin = nan
	if et := Daily(in); et <= 0. || math.IsNaN(et) {
		t.Errorf("Tmin-2 fallback: ET=%f", et)
	}
}

func TestWindProfile(t *testing.T) {
	// measurement at the standard height is the identity
	if u := WindAt2m(3., 2.); math.Abs(u-3.) > 0.01 {
		t.Errorf("WindAt2m at 2 m: %f, want ~3", u)
	}
	// higher anemometers read faster air; the conversion reduces it
	if u := WindAt2m(3., 10.); u >= 3. {
		t.Errorf("10 m measurement not reduced: %f", u)
	}
}

func TestExtraterrestrialRadiation(t *testing.T) {
	// northern summer exceeds northern winter
	if Ra(40., 172) <= Ra(40., 355) {
		t.Error("Ra at 40N: solstice ordering wrong")
	}
	// equator is non-negative and bounded year round
	for doy := 1; doy <= 365; doy += 10 {
		ra := Ra(0., doy)
		if ra < 30. || ra > 40. {
			t.Errorf("doy %d: equatorial Ra=%f outside [30,40]", doy, ra)
		}
	}
	// clear-sky radiation grows with elevation
	if ClearSky(40., 2000., 182) <= ClearSky(40., 0., 182) {
		t.Error("clear-sky radiation did not grow with elevation")
	}
}

func TestHourlyDayNight(t *testing.T) {
	day := HourlyInput{
		Surface: Short, Elev: 1462.4, Lat: 40.41, Lon: 104.78, Lzm: 105.,
		DOY: 182, Hour: 12., Srad: 3.2, Tavg: 30.9, Tdew: 11.2,
		Wndsp: 2.5, Wndht: 3., Daytime: true,
	}
	etDay := Hourly(day)
	if etDay < 0.3 || etDay > 1.2 {
		t.Errorf("midday ET=%f mm/h outside the plausible range", etDay)
	}

	night := day
	night.Hour, night.Srad, night.Tavg = 2., 0., 16.
	night.Daytime = false
	etNight := Hourly(night)
	if etNight >= etDay {
		t.Errorf("night ET %f not below midday %f", etNight, etDay)
	}

	tall := day
	tall.Surface = Tall
	if Hourly(tall) <= etDay {
		t.Error("tall hourly reference not above short")
	}
}

func TestParseSurface(t *testing.T) {
	if ParseSurface("T") != Tall || ParseSurface("S") != Short || ParseSurface("") != Short {
		t.Error("surface code parsing broken")
	}
	if Tall.String() != "T" || Short.String() != "S" {
		t.Error("surface code rendering broken")
	}
}
