package fao56

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SoilLayer is one stratum of a layered soil profile. Depths are in
// meters below the surface.
type SoilLayer struct {
	Top     float64 // top of layer (m)
	Bottom  float64 // bottom of layer (m)
	ThetaFC float64 // field capacity (m³/m³)
	ThetaWP float64 // wilting point (m³/m³)
	Theta0  float64 // initial water content (m³/m³)
}

// SoilProfile is an ordered, contiguous sequence of layers. Optional
// collaborator: when supplied, root-zone water capacities are aggregated
// from the layers occupied by roots instead of the single-layer
// parameters.
type SoilProfile struct {
	Layers []SoilLayer
}

// SoilProvider is the capability interface the engine consumes for
// stratified soils.
type SoilProvider interface {
	Validate(zrmax float64) error
	// RootZone returns depth-weighted effective water contents for the
	// interval [0, zr].
	RootZone(zr float64) (thetaFC, thetaWP, theta0 float64)
	// Surface returns the water contents of the top layer, used for the
	// evaporation layer.
	Surface() (thetaFC, thetaWP, theta0 float64)
}

// Validate checks layer contiguity and that the profile covers at least
// the maximum root depth. Inconsistencies are fatal at construction time,
// not deferred to the day the root zone first reaches them.
func (s *SoilProfile) Validate(zrmax float64) error {
	bad := func(reason string) error {
		return &ConfigError{Component: "soil profile", Reason: reason}
	}
	if len(s.Layers) == 0 {
		return bad("no layers")
	}
	if s.Layers[0].Top != 0 {
		return bad(fmt.Sprintf("first layer starts at %g m, not the surface", s.Layers[0].Top))
	}
	for i, l := range s.Layers {
		if l.Bottom <= l.Top {
			return bad(fmt.Sprintf("layer %d: bottom (%g) not below top (%g)", i, l.Bottom, l.Top))
		}
		if l.ThetaFC <= l.ThetaWP {
			return bad(fmt.Sprintf("layer %d: thetaFC (%g) must exceed thetaWP (%g)", i, l.ThetaFC, l.ThetaWP))
		}
		if i > 0 && l.Top != s.Layers[i-1].Bottom {
			return bad(fmt.Sprintf("gap or overlap between layers %d and %d (%g vs %g m)",
				i-1, i, s.Layers[i-1].Bottom, l.Top))
		}
	}
	if bot := s.Layers[len(s.Layers)-1].Bottom; bot < zrmax {
		return bad(fmt.Sprintf("profile bottom (%g m) above maximum root depth (%g m)", bot, zrmax))
	}
	return nil
}

// RootZone computes the effective water contents of the soil occupied by
// roots, weighting each layer by its overlap with [0, zr]. The result is
// continuous and monotone in zr, with no discontinuity at layer
// boundaries.
func (s *SoilProfile) RootZone(zr float64) (thetaFC, thetaWP, theta0 float64) {
	if zr <= 0 {
		return s.Surface()
	}
	var wfc, wwp, w0, span float64
	for _, l := range s.Layers {
		top, bot := l.Top, l.Bottom
		if bot > zr {
			bot = zr
		}
		if bot <= top {
			break // layers are ordered; nothing deeper overlaps
		}
		dz := bot - top
		wfc += l.ThetaFC * dz
		wwp += l.ThetaWP * dz
		w0 += l.Theta0 * dz
		span += dz
	}
	if span < zr { // roots below the profile; validation bounds this to zr > zrmax misuse
		dz := zr - span
		last := s.Layers[len(s.Layers)-1]
		wfc += last.ThetaFC * dz
		wwp += last.ThetaWP * dz
		w0 += last.Theta0 * dz
		span = zr
	}
	return wfc / span, wwp / span, w0 / span
}

// Surface returns the top layer's water contents.
func (s *SoilProfile) Surface() (thetaFC, thetaWP, theta0 float64) {
	l := s.Layers[0]
	return l.ThetaFC, l.ThetaWP, l.Theta0
}

// Save writes the profile as "bottom_m thetaFC thetaWP theta0" rows.
func (s *SoilProfile) Save(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("soilprofile.Save: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# fao56 soil profile data")
	fmt.Fprintln(w, "# bottom_m thetaFC thetaWP theta0")
	for _, l := range s.Layers {
		fmt.Fprintf(w, "%7.3f %7.3f %7.3f %7.3f\n", l.Bottom, l.ThetaFC, l.ThetaWP, l.Theta0)
	}
	return w.Flush()
}

// LoadSoilProfile reads a profile written by Save. Layer tops are implied
// by the preceding bottom, starting at the surface.
func LoadSoilProfile(fp string) (*SoilProfile, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadSoilProfile: %w", err)
	}
	defer f.Close()
	var s SoilProfile
	top := 0.
	scn := bufio.NewScanner(f)
	for scn.Scan() {
		ln := strings.TrimSpace(scn.Text())
		if ln == "" || strings.HasPrefix(ln, "#") {
			continue
		}
		flds := strings.Fields(ln)
		if len(flds) < 4 {
			return nil, &ConfigError{Component: "soil profile", Reason: fmt.Sprintf("bad row %q", ln)}
		}
		var v [4]float64
		for i := range v {
			if v[i], err = strconv.ParseFloat(flds[i], 64); err != nil {
				return nil, &ConfigError{Component: "soil profile", Reason: fmt.Sprintf("bad value %q", flds[i])}
			}
		}
		s.Layers = append(s.Layers, SoilLayer{
			Top: top, Bottom: v[0], ThetaFC: v[1], ThetaWP: v[2], Theta0: v[3],
		})
		top = v[0]
	}
	if err := scn.Err(); err != nil {
		return nil, fmt.Errorf("LoadSoilProfile: %w", err)
	}
	return &s, nil
}
