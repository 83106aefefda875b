package fao56

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/maseology/mmio"
)

// DailyState is one day's water-balance record, immutable once emitted.
type DailyState struct {
	Date    time.Time
	ETref   float64 // reference ET (mm)
	Kcb     float64 // basal crop coefficient
	H       float64 // plant height (m)
	Kcmax   float64 // upper limit crop coefficient, FAO-56 Eq. 72
	Fc      float64 // canopy cover fraction, FAO-56 Eq. 76
	Fw      float64 // fraction of soil surface wetted, FAO-56 Table 20
	Few     float64 // exposed and wetted soil fraction, FAO-56 Eq. 75
	De      float64 // cumulative depth of evaporation (mm), FAO-56 Eqs. 77-78
	Kr      float64 // evaporation reduction coefficient, FAO-56 Eq. 74
	Ke      float64 // evaporation coefficient, FAO-56 Eq. 71
	E       float64 // soil water evaporation (mm), FAO-56 Eq. 69
	DPe     float64 // percolation under exposed soil (mm), FAO-56 Eq. 79
	Kc      float64 // crop coefficient Kcb+Ke
	ETc     float64 // non-stressed crop ET (mm), FAO-56 Eq. 69
	TAW     float64 // total available water (mm), FAO-56 Eq. 82
	RAW     float64 // readily available water (mm), FAO-56 Eq. 83
	P       float64 // fraction of TAW depleted without stress
	Zr      float64 // root depth (m)
	Ks      float64 // transpiration reduction factor, FAO-56 Eq. 84
	Kcadj   float64 // stress-adjusted crop coefficient Ks·Kcb+Ke
	ETcadj  float64 // stress-adjusted crop ET (mm), FAO-56 Eq. 80
	T       float64 // adjusted crop transpiration (mm)
	DP      float64 // deep percolation (mm), FAO-56 Eq. 88
	Dr      float64 // root-zone depletion (mm), FAO-56 Eqs. 85-86
	FDr     float64 // fractional root-zone depletion Dr/TAW
	Irrig   float64 // gross irrigation applied (mm), explicit or auto
	AutoIrr bool    // irrigation was decided by the autoirrigate engine
	Rain    float64 // precipitation (mm)
	Runoff  float64 // curve-number surface runoff (mm), 0 unless enabled
}

// stateColumns is the output column order.
const stateColumns = "Date,ETref,Kcb,h,Kcmax,fc,fw,few,De,Kr,Ke,E,DPe,Kc," +
	"ETc,TAW,RAW,p,Zr,Ks,Kcadj,ETcadj,T,DP,Dr,fDr,Irrig,Auto,Rain,Runoff"

// SaveStatesCSV writes the output sequence in date order.
func SaveStatesCSV(fp string, states []DailyState) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead(stateColumns); err != nil {
		return fmt.Errorf("SaveStatesCSV: %w", err)
	}
	for _, s := range states {
		auto := 0
		if s.AutoIrr {
			auto = 1
		}
		csvw.WriteLine(FormatDOY(s.Date), s.ETref, s.Kcb, s.H, s.Kcmax,
			s.Fc, s.Fw, s.Few, s.De, s.Kr, s.Ke, s.E, s.DPe, s.Kc,
			s.ETc, s.TAW, s.RAW, s.P, s.Zr, s.Ks, s.Kcadj, s.ETcadj,
			s.T, s.DP, s.Dr, s.FDr, s.Irrig, auto, s.Rain, s.Runoff)
	}
	return nil
}

// SaveStatesText writes a fixed-width report of the output sequence.
func SaveStatesText(fp string, states []DailyState) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("SaveStatesText: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "fao56: FAO-56 dual crop coefficient soil water balance")
	fmt.Fprintf(w, "%-9s%7s%6s%6s%6s%6s%6s%6s%8s%6s%6s%7s%8s%6s%7s%8s%8s%6s%6s%6s%6s%7s%7s%8s%8s%6s%8s%8s%8s\n",
		"Date", "ETref", "Kcb", "h", "Kcmax", "fc", "fw", "few", "De",
		"Kr", "Ke", "E", "DPe", "Kc", "ETc", "TAW", "RAW", "p", "Zr",
		"Ks", "Kcadj", "ETcadj", "T", "DP", "Dr", "fDr", "Irrig", "Rain", "Runoff")
	for _, s := range states {
		fmt.Fprintf(w, "%-9s%7.3f%6.3f%6.3f%6.3f%6.3f%6.3f%6.3f%8.3f%6.3f%6.3f%7.3f%8.3f%6.3f%7.3f%8.3f%8.3f%6.3f%6.3f%6.3f%6.3f%7.3f%7.3f%8.3f%8.3f%6.3f%8.3f%8.3f%8.3f\n",
			FormatDOY(s.Date), s.ETref, s.Kcb, s.H, s.Kcmax, s.Fc, s.Fw,
			s.Few, s.De, s.Kr, s.Ke, s.E, s.DPe, s.Kc, s.ETc, s.TAW,
			s.RAW, s.P, s.Zr, s.Ks, s.Kcadj, s.ETcadj, s.T, s.DP, s.Dr,
			s.FDr, s.Irrig, s.Rain, s.Runoff)
	}
	return w.Flush()
}
