// Package refet computes standardized reference evapotranspiration
// following the ASCE Standardized Reference Evapotranspiration Equation
// (ASCE-EWRI, 2005). All functions are pure; identical inputs yield
// identical output.
package refet

import "math"

// Surface selects the reference crop surface.
type Surface int

const (
	Short Surface = iota // 0.12-m clipped grass
	Tall                 // 0.50-m alfalfa
)

func (s Surface) String() string {
	if s == Tall {
		return "T"
	}
	return "S"
}

// ParseSurface maps the 'S'/'T' file codes to a Surface.
func ParseSurface(code string) Surface {
	if code == "T" {
		return Tall
	}
	return Short
}

// DailyInput carries one day's weather record and the site constants.
// Tdew, RHmax, RHmin and Wndsp may be NaN; ASCE (2005) Appendix E
// fallbacks apply.
type DailyInput struct {
	Surface Surface
	Elev    float64 // site elevation above mean sea level (m)
	Lat     float64 // site latitude (decimal degrees)
	DOY     int     // day of year, 1-366
	Srad    float64 // incoming solar radiation (MJ m⁻² d⁻¹)
	Tmax    float64 // daily maximum air temperature (°C)
	Tmin    float64 // daily minimum air temperature (°C)
	Tdew    float64 // daily average dew point temperature (°C)
	RHmax   float64 // daily maximum relative humidity (%)
	RHmin   float64 // daily minimum relative humidity (%)
	Wndsp   float64 // daily average wind speed (m/s)
	Wndht   float64 // wind measurement height (m)
}

// svp is the saturation vapor pressure (kPa) at temperature t (°C),
// ASCE (2005) Eq. 7.
func svp(t float64) float64 {
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}

// WindAt2m converts a wind speed measured at height ht (m) to the
// standard 2-m height with the logarithmic profile of ASCE (2005) Eq. 33.
func WindAt2m(wndsp, ht float64) float64 {
	return wndsp * (4.87 / math.Log(67.8*ht-5.42))
}

// Ra is the extraterrestrial radiation (MJ m⁻² d⁻¹) for a day of year and
// latitude (decimal degrees), ASCE (2005) Eqs. 21-27.
func Ra(lat float64, doy int) float64 {
	latrad := lat * math.Pi / 180.                                    // Eq. 22
	dr := 1. + 0.033*math.Cos(2.*math.Pi/365.*float64(doy))           // Eq. 23
	ldelta := 0.409 * math.Sin(2.*math.Pi/365.*float64(doy)-1.39)     // Eq. 24
	ws := math.Acos(-1. * math.Tan(latrad) * math.Tan(ldelta))        // Eq. 27
	ra1 := ws * math.Sin(latrad) * math.Sin(ldelta)                   // Eq. 21
	ra2 := math.Cos(latrad) * math.Cos(ldelta) * math.Sin(ws)         // Eq. 21
	return 24. / math.Pi * 4.92 * dr * (ra1 + ra2)                    // Eq. 21
}

// ClearSky is the clear-sky solar radiation (MJ m⁻² d⁻¹) at elevation z,
// ASCE (2005) Eq. 19.
func ClearSky(lat, z float64, doy int) float64 {
	return (0.75 + 2e-5*z) * Ra(lat, doy)
}

// Daily computes the standardized daily reference crop ET (mm d⁻¹),
// ASCE (2005) Eq. 1.
func Daily(in DailyInput) float64 {
	tavg := (in.Tmax + in.Tmin) / 2. // Eq. 2

	patm := 101.3 * math.Pow((293.-0.0065*in.Elev)/293., 5.26) // Eq. 3
	psycon := 0.000665 * patm                                  // Eq. 4

	// slope of the saturation vapor pressure curve, Eq. 5
	udelta := 2503. * math.Exp(17.27*tavg/(tavg+237.3)) / math.Pow(tavg+237.3, 2.)

	emax, emin := svp(in.Tmax), svp(in.Tmin)
	es := (emax + emin) / 2. // Eqs. 6 and 7

	// actual vapor pressure, Table 3
	var ea float64
	switch {
	case !math.IsNaN(in.Tdew):
		ea = svp(in.Tdew) // Eq. 8
	case !math.IsNaN(in.RHmax) && !math.IsNaN(in.RHmin):
		ea = (emin*in.RHmax/100. + emax*in.RHmin/100.) / 2. // Eq. 11
	case !math.IsNaN(in.RHmax):
		ea = emin * in.RHmax / 100. // Eq. 12
	case !math.IsNaN(in.RHmin):
		ea = emax * in.RHmin / 100. // Eq. 13
	default:
		ea = svp(in.Tmin - 2.) // Appendix E
	}

	// net shortwave radiation, Eq. 16
	const albedo = 0.23
	rns := (1. - albedo) * in.Srad

	rso := ClearSky(in.Lat, in.Elev, in.DOY)

	// net longwave radiation, Eqs. 17 and 18
	ratio := clamp(in.Srad/rso, 0.3, 1.0)
	fcd := clamp(1.35*ratio-0.35, 0.05, 1.0)
	tk4 := (math.Pow(in.Tmax+273.16, 4.) + math.Pow(in.Tmin+273.16, 4.)) / 2.
	rnl := 4.901e-9 * fcd * (0.34 - 0.14*math.Sqrt(ea)) * tk4

	rn := rns - rnl // Eq. 15
	g := 0.         // daily soil heat flux, Eq. 30

	wndsp := in.Wndsp
	if math.IsNaN(wndsp) {
		wndsp = 2.0 // Appendix E
	}
	wndht := in.Wndht
	if math.IsNaN(wndht) || wndht <= 0 {
		wndht = 2.0
	}
	u2 := WindAt2m(wndsp, wndht)

	// aerodynamic constants, Table 1
	cn, cd := 900.0, 0.34 // short reference (grass)
	if in.Surface == Tall {
		cn, cd = 1600.0, 0.38 // tall reference (alfalfa)
	}

	etsz := 0.408*udelta*(rn-g) + psycon*(cn/(tavg+273.))*u2*(es-ea)
	return etsz / (udelta + psycon*(1.+cd*u2))
}

// HourlyInput carries one hour's weather record and the site constants.
type HourlyInput struct {
	Surface Surface
	Elev    float64
	Lat     float64 // decimal degrees
	Lon     float64 // decimal degrees, positive west
	DOY     int
	Hour    float64 // local standard time at midpoint of period, 0-23.5
	Lzm     float64 // longitude of local time zone center (deg west)
	Srad    float64 // incoming solar radiation (MJ m⁻² h⁻¹)
	Tavg    float64 // mean hourly air temperature (°C)
	Tdew    float64 // mean hourly dew point temperature (°C)
	Wndsp   float64 // mean hourly wind speed (m/s)
	Wndht   float64
	Daytime bool
}

// Hourly computes the standardized hourly reference crop ET (mm h⁻¹),
// ASCE (2005) Eq. 1 with the hourly constants of Table 1.
func Hourly(in HourlyInput) float64 {
	patm := 101.3 * math.Pow((293.-0.0065*in.Elev)/293., 5.26)
	psycon := 0.000665 * patm
	udelta := 2503. * math.Exp(17.27*in.Tavg/(in.Tavg+237.3)) / math.Pow(in.Tavg+237.3, 2.)
	es := svp(in.Tavg)
	ea := svp(in.Tdew)

	const albedo = 0.23
	rns := (1. - albedo) * in.Srad

	// extraterrestrial radiation for the hour, Eqs. 48-57
	latrad := in.Lat * math.Pi / 180.
	dr := 1. + 0.033*math.Cos(2.*math.Pi/365.*float64(in.DOY))
	ldelta := 0.409 * math.Sin(2.*math.Pi/365.*float64(in.DOY)-1.39)
	b := 2. * math.Pi * (float64(in.DOY) - 81.) / 364.                       // Eq. 58
	sc := 0.1645*math.Sin(2.*b) - 0.1255*math.Cos(b) - 0.025*math.Sin(b)     // Eq. 57
	omega := math.Pi / 12. * ((in.Hour + 0.5 + (in.Lzm-in.Lon)/15. + sc) - 12.) // Eqs. 55-56
	omega1 := omega - math.Pi/24.
	omega2 := omega + math.Pi/24.
	ws := math.Acos(-1. * math.Tan(latrad) * math.Tan(ldelta))
	omega1 = clamp(omega1, -ws, ws)
	omega2 = clamp(omega2, -ws, ws)
	if omega1 > omega2 {
		omega1 = omega2
	}
	ra := 12. / math.Pi * 4.92 * dr * ((omega2-omega1)*math.Sin(latrad)*math.Sin(ldelta) +
		math.Cos(latrad)*math.Cos(ldelta)*(math.Sin(omega2)-math.Sin(omega1))) // Eq. 53

	rso := (0.75 + 2e-5*in.Elev) * ra
	ratio := 0.7
	if rso > 0 {
		ratio = clamp(in.Srad/rso, 0.3, 1.0)
	}
	fcd := clamp(1.35*ratio-0.35, 0.05, 1.0)
	tk4 := math.Pow(in.Tavg+273.16, 4.)
	rnl := 2.042e-10 * fcd * (0.34 - 0.14*math.Sqrt(ea)) * tk4
	rn := rns - rnl

	// soil heat flux and surface constants differ day/night, Table 1
	var g, cn, cd float64
	if in.Surface == Tall {
		cn = 66.
		if in.Daytime {
			g, cd = 0.04*rn, 0.25
		} else {
			g, cd = 0.2*rn, 1.7
		}
	} else {
		cn = 37.
		if in.Daytime {
			g, cd = 0.1*rn, 0.24
		} else {
			g, cd = 0.5*rn, 0.96
		}
	}

	wndht := in.Wndht
	if math.IsNaN(wndht) || wndht <= 0 {
		wndht = 2.0
	}
	u2 := WindAt2m(in.Wndsp, wndht)

	etsz := 0.408*udelta*(rn-g) + psycon*(cn/(in.Tavg+273.))*u2*(es-ea)
	return etsz / (udelta + psycon*(1.+cd*u2))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
