package core

// Compound is one row of the compound list: a glycan composition searched
// against each run, with its MS2 diagnostic fragment masses.
type Compound struct {
	Code        string // original underscore code, e.g. "5_4_0_1"
	Composition Composition
	Note        string // subtype annotation, e.g. "Sialylated"
	Addon       string // raw addon-mass column, kept verbatim for labels
	AddonMass   float64
	Fragments   []float64
}

// Label returns the compound's reporting key, "code-addon".
func (c Compound) Label() string {
	return c.Code + "-" + c.Addon
}
