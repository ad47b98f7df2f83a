// Package core provides the chemistry calculations and data model for
// glycan DIA searches.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NumMonomers is the length of a glycan composition vector.
const NumMonomers = 5

// MonomerMasses holds the monoisotopic residue masses, index-aligned with the
// composition vector: Hex, HexNAc, dHex, NeuAc, NeuGc.
var MonomerMasses = [NumMonomers]float64{162.05282, 203.07937, 146.05791, 291.09542, 307.09033}

// MassWater is the monoisotopic mass of H2O, added once per glycan.
const MassWater = 18.01056

// Isotope spacing offsets for the first and second isotope-shifted target
// masses. The offset applies to the ion as a whole; it is not scaled by
// charge.
const (
	IsotopeShift1 = 1.0034
	IsotopeShift2 = 2.006
)

// Adduct identifies the ionizing species contributing mass to the ion.
type Adduct string

const (
	AdductH   Adduct = "H"
	AdductNa  Adduct = "Na"
	AdductK   Adduct = "K"
	AdductNH4 Adduct = "NH4"
)

// AdductMasses maps adduct species to their monoisotopic masses.
var AdductMasses = map[Adduct]float64{
	AdductH:   1.00728,
	AdductNa:  22.98922,
	AdductK:   38.96316,
	AdductNH4: 18.03383,
}

// Polarity is the ionization polarity of the search.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

var (
	ErrInvalidAdduct   = errors.New("core: adduct must be one of H, Na, K, NH4")
	ErrInvalidPolarity = errors.New("core: polarity must be positive or negative")
)

// ParseAdduct validates an adduct name.
func ParseAdduct(s string) (Adduct, error) {
	a := Adduct(s)
	if _, ok := AdductMasses[a]; !ok {
		return "", fmt.Errorf("%w: got %q", ErrInvalidAdduct, s)
	}
	return a, nil
}

// ParsePolarity validates a polarity name.
func ParsePolarity(s string) (Polarity, error) {
	switch p := Polarity(s); p {
	case PolarityPositive, PolarityNegative:
		return p, nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidPolarity, s)
}

// Composition is the monomer count vector of a glycan.
type Composition [NumMonomers]int

// ParseComposition parses an underscore-separated code such as "5_4_0_1".
// Codes shorter than NumMonomers are right-padded with zeros.
func ParseComposition(code string) (Composition, error) {
	var comp Composition
	parts := strings.Split(code, "_")
	if len(parts) > NumMonomers {
		return comp, fmt.Errorf("core: composition %q has more than %d monomers", code, NumMonomers)
	}
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return comp, fmt.Errorf("core: composition %q: %w", code, err)
		}
		comp[i] = n
	}
	return comp, nil
}

// Mass returns the neutral monoisotopic mass of the glycan, including water.
func (c Composition) Mass() float64 {
	mass := MassWater
	for i, n := range c {
		mass += float64(n) * MonomerMasses[i]
	}
	return mass
}

// TargetSet holds the theoretical target masses for one charge state: the
// monoisotopic m/z and its two isotope-shifted companions.
type TargetSet struct {
	Charge int
	DF1    float64
	DF2    float64
	DF3    float64
}

// MassCalculator computes theoretical glycan ion m/z values for a fixed
// adduct and polarity.
type MassCalculator struct {
	adductMass float64
	sign       float64
}

// NewMassCalculator rejects adducts and polarities outside the enumerated
// sets.
func NewMassCalculator(adduct Adduct, polarity Polarity) (*MassCalculator, error) {
	mass, ok := AdductMasses[adduct]
	if !ok {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidAdduct, adduct)
	}
	calc := &MassCalculator{adductMass: mass}
	switch polarity {
	case PolarityPositive:
		calc.sign = 1
	case PolarityNegative:
		calc.sign = -1
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidPolarity, polarity)
	}
	return calc, nil
}

// Targets computes df1, df2 and df3 for the composition at charge z. The
// addon mass is a flat addition to the neutral mass.
func (m *MassCalculator) Targets(comp Composition, addonMass float64, z int) TargetSet {
	ion := comp.Mass() + addonMass + m.sign*m.adductMass*float64(z)
	return TargetSet{
		Charge: z,
		DF1:    ion / float64(z),
		DF2:    (ion + IsotopeShift1) / float64(z),
		DF3:    (ion + IsotopeShift2) / float64(z),
	}
}

// Tolerance returns the mass-matching window for a target mass at the given
// parts-per-million error.
func Tolerance(mass, ppm float64) float64 {
	return ppm * mass / 1e6
}
