package fao56

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Parameters holds the crop and single-layer soil constants for FAO-56
// calculations. Supplied once at model construction and read-only
// thereafter.
type Parameters struct {
	Kcbini float64 // basal crop coefficient, initial stage (FAO-56 Table 17)
	Kcbmid float64 // basal crop coefficient, mid-season
	Kcbend float64 // basal crop coefficient, late season
	Lini   int     // length of initial stage (days) (FAO-56 Table 11)
	Ldev   int     // length of development stage (days)
	Lmid   int     // length of mid-season stage (days)
	Lend   int     // length of late-season stage (days)
	Hini   float64 // plant height, initial (m)
	Hmax   float64 // plant height, maximum (m) (FAO-56 Table 12)

	ThetaFC float64 // volumetric water content at field capacity (m³/m³)
	ThetaWP float64 // volumetric water content at wilting point (m³/m³)
	Theta0  float64 // volumetric water content, initial (m³/m³)
	Zrini   float64 // rooting depth, initial (m)
	Zrmax   float64 // rooting depth, maximum (m) (FAO-56 Table 22)
	Pbase   float64 // depletion fraction p (FAO-56 Table 22)
	Ze      float64 // depth of surface evaporation layer (m) (FAO-56 Table 19)
	REW     float64 // readily evaporable water (mm) (FAO-56 Table 19)
	CN2     float64 // curve number for AMC II (ASCE (2016) Table 14-3)
}

// DefaultParameters returns the FAO-56 example defaults; users should
// replace them with crop- and field-specific values.
func DefaultParameters() Parameters {
	return Parameters{
		Kcbini: 0.15, Kcbmid: 1.10, Kcbend: 0.50,
		Lini: 25, Ldev: 50, Lmid: 50, Lend: 25,
		Hini: 0.010, Hmax: 1.20,
		ThetaFC: 0.250, ThetaWP: 0.100, Theta0: 0.100,
		Zrini: 0.20, Zrmax: 1.40,
		Pbase: 0.50, Ze: 0.10, REW: 8.0, CN2: 70,
	}
}

// Validate checks the parameter set for physically inconsistent values.
func (p *Parameters) Validate() error {
	bad := func(reason string) error {
		return &ConfigError{Component: "parameters", Reason: reason}
	}
	switch {
	case p.ThetaFC <= p.ThetaWP:
		return bad(fmt.Sprintf("thetaFC (%g) must exceed thetaWP (%g)", p.ThetaFC, p.ThetaWP))
	case p.Theta0 < 0 || p.Theta0 > 1:
		return bad(fmt.Sprintf("theta0 (%g) outside [0,1]", p.Theta0))
	case p.Zrini <= 0 || p.Zrmax < p.Zrini:
		return bad(fmt.Sprintf("rooting depths Zrini=%g Zrmax=%g inconsistent", p.Zrini, p.Zrmax))
	case p.Kcbmid <= p.Kcbini:
		return bad(fmt.Sprintf("Kcbmid (%g) must exceed Kcbini (%g)", p.Kcbmid, p.Kcbini))
	case p.Lini < 0 || p.Ldev < 0 || p.Lmid < 0 || p.Lend < 0:
		return bad("negative growth stage length")
	case p.Ze <= 0:
		return bad(fmt.Sprintf("Ze (%g) must be positive", p.Ze))
	case p.REW < 0 || p.REW >= p.TEW():
		return bad(fmt.Sprintf("REW (%g) must lie in [0, TEW=%g)", p.REW, p.TEW()))
	case p.CN2 < 0 || p.CN2 > 100:
		return bad(fmt.Sprintf("CN2 (%g) outside [0,100]", p.CN2))
	case p.Pbase <= 0 || p.Pbase >= 1:
		return bad(fmt.Sprintf("pbase (%g) outside (0,1)", p.Pbase))
	}
	return nil
}

// TEW is the total evaporable water of the surface layer (mm), FAO-56 Eq. 73.
func (p *Parameters) TEW() float64 {
	return 1000. * (p.ThetaFC - 0.5*p.ThetaWP) * p.Ze
}

// Save writes the parameter set as a key-value text file.
func (p *Parameters) Save(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("parameters.Save: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# fao56 parameter data")
	for _, kv := range [][2]string{
		{"Kcbini", ftoa(p.Kcbini)}, {"Kcbmid", ftoa(p.Kcbmid)}, {"Kcbend", ftoa(p.Kcbend)},
		{"Lini", strconv.Itoa(p.Lini)}, {"Ldev", strconv.Itoa(p.Ldev)},
		{"Lmid", strconv.Itoa(p.Lmid)}, {"Lend", strconv.Itoa(p.Lend)},
		{"hini", ftoa(p.Hini)}, {"hmax", ftoa(p.Hmax)},
		{"thetaFC", ftoa(p.ThetaFC)}, {"thetaWP", ftoa(p.ThetaWP)}, {"theta0", ftoa(p.Theta0)},
		{"Zrini", ftoa(p.Zrini)}, {"Zrmax", ftoa(p.Zrmax)},
		{"pbase", ftoa(p.Pbase)}, {"Ze", ftoa(p.Ze)}, {"REW", ftoa(p.REW)},
		{"CN2", ftoa(p.CN2)},
	} {
		fmt.Fprintf(w, "%-8s %s\n", kv[0], kv[1])
	}
	return w.Flush()
}

// LoadParameters reads a parameter file written by Save.
func LoadParameters(fp string) (Parameters, error) {
	p := DefaultParameters()
	f, err := os.Open(fp)
	if err != nil {
		return p, fmt.Errorf("LoadParameters: %w", err)
	}
	defer f.Close()
	scn := bufio.NewScanner(f)
	for scn.Scan() {
		ln := strings.TrimSpace(scn.Text())
		if ln == "" || strings.HasPrefix(ln, "#") {
			continue
		}
		flds := strings.Fields(ln)
		if len(flds) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(flds[1], 64)
		if err != nil {
			return p, &ConfigError{Component: "parameters", Reason: fmt.Sprintf("bad value for %s: %q", flds[0], flds[1])}
		}
		switch flds[0] {
		case "Kcbini":
			p.Kcbini = v
		case "Kcbmid":
			p.Kcbmid = v
		case "Kcbend":
			p.Kcbend = v
		case "Lini":
			p.Lini = int(v)
		case "Ldev":
			p.Ldev = int(v)
		case "Lmid":
			p.Lmid = int(v)
		case "Lend":
			p.Lend = int(v)
		case "hini":
			p.Hini = v
		case "hmax":
			p.Hmax = v
		case "thetaFC":
			p.ThetaFC = v
		case "thetaWP":
			p.ThetaWP = v
		case "theta0":
			p.Theta0 = v
		case "Zrini":
			p.Zrini = v
		case "Zrmax":
			p.Zrmax = v
		case "pbase":
			p.Pbase = v
		case "Ze":
			p.Ze = v
		case "REW":
			p.REW = v
		case "CN2":
			p.CN2 = v
		default:
			return p, &ConfigError{Component: "parameters", Reason: "unknown parameter " + flds[0]}
		}
	}
	if err := scn.Err(); err != nil {
		return p, fmt.Errorf("LoadParameters: %w", err)
	}
	return p, p.Validate()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
