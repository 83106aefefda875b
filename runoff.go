package fao56

// adjustCN corrects the AMC-II curve number for antecedent surface
// wetness inferred from the evaporation-layer depletion: a dry surface
// (large De) tends toward AMC-I, a wet surface toward AMC-III
// (ASCE (2016) Eqs. 14-6 and 14-7).
func adjustCN(cn2, de, rew, tew float64) float64 {
	cn1 := cn2 / (2.281 - 0.01281*cn2) // dry antecedent condition
	cn3 := cn2 / (0.427 + 0.00573*cn2) // wet antecedent condition
	lo := 0.5 * rew
	hi := 0.7*rew + 0.3*tew
	switch {
	case de <= lo:
		return cn3
	case de >= hi:
		return cn1
	default:
		return ((de-lo)*cn1 + (hi-de)*cn3) / (hi - lo)
	}
}

// cnRunoff is the USDA-NRCS curve-number runoff estimate (mm) for a
// rainfall depth p (mm); zero below the initial abstraction 0.2·S.
func cnRunoff(p, cn float64) float64 {
	if cn <= 0 {
		return 0
	}
	s := 25400./cn - 254. // potential maximum retention (mm)
	ia := 0.2 * s
	if p <= ia {
		return 0
	}
	q := (p - ia) * (p - ia) / (p + 0.8*s)
	if q > p {
		q = p
	}
	return q
}
