package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Tableau describes an explicit embedded Runge-Kutta pair whose last stage is
// evaluated at the propagated solution (first same as last). E has one entry
// more than B; the extra weight multiplies f(t+h, y_new).
type Tableau struct {
	Name string
	// ErrorOrder is the order of the embedded error estimate; steps scale with
	// err^(-1/(ErrorOrder+1)).
	ErrorOrder int
	C          []float64
	A          [][]float64
	B          []float64
	E          []float64
}

func (tb *Tableau) Stages() int { return len(tb.B) }

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// DormandPrince is the 5(4) pair.
var DormandPrince = &Tableau{
	Name:       "rk45",
	ErrorOrder: 4,
	C:          []float64{0, a2, a3, a4, a5, 1},
	A: [][]float64{
		{},
		{b21},
		{b31, b32},
		{b41, b42, b43},
		{b51, b52, b53, b54},
		{b61, b62, b63, b64, b65},
	},
	B: []float64{c1, 0, c3, c4, c5, c6},
	E: []float64{dc1, 0, dc3, dc4, dc5, dc6, dc7},
}

// BogackiShampine is the 3(2) pair.
var BogackiShampine = &Tableau{
	Name:       "rk23",
	ErrorOrder: 2,
	C:          []float64{0, 1.0 / 2.0, 3.0 / 4.0},
	A: [][]float64{
		{},
		{1.0 / 2.0},
		{0, 3.0 / 4.0},
	},
	B: []float64{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0},
	E: []float64{5.0 / 72.0, -1.0 / 12.0, -1.0 / 9.0, 1.0 / 8.0},
}

var tableaus = map[string]*Tableau{
	DormandPrince.Name:   DormandPrince,
	BogackiShampine.Name: BogackiShampine,
}

// LookupTableau returns the pair registered under name.
func LookupTableau(name string) (*Tableau, error) {
	tb, ok := tableaus[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown adaptive method %q", dynamo.ErrConfiguration, name)
	}
	return tb, nil
}

func AdaptiveMethods() []string {
	names := make([]string, 0, len(tableaus))
	for name := range tableaus {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
