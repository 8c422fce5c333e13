package kernel

import (
	"math"

	"github.com/san-kum/attractor/internal/vec"
)

func stepPoly(c *Coef, y vec.Vec) vec.Vec {
	var z vec.Vec
	for i := 0; i < 2; i++ {
		z[i] = c[0][i] +
			c[1][i]*y[0] +
			c[2][i]*y[0]*y[0] +
			c[3][i]*y[0]*y[1] +
			c[4][i]*y[1]*y[1] +
			c[5][i]*y[1]
	}
	return z
}

// periodic evaluates the shared four-term form of the periodic families,
// with sin and cos standing for the family's odd and even waveforms.
func periodic(c *Coef, y vec.Vec, sin, cos func(float64) float64) vec.Vec {
	var z vec.Vec
	for i := 0; i < 2; i++ {
		z[i] = c[0][i]*sin(c[1][i]*y[1]) +
			c[2][i]*cos(c[3][i]*y[0]) +
			c[4][i]*sin(c[5][i]*y[0]) +
			c[6][i]*cos(c[7][i]*y[1])
	}
	return z
}

func stepTrig(c *Coef, y vec.Vec) vec.Vec {
	return periodic(c, y, math.Sin, math.Cos)
}

func stepSaw(c *Coef, y vec.Vec) vec.Vec {
	return periodic(c, y, SawWave, sawQuarter)
}

func stepTri(c *Coef, y vec.Vec) vec.Vec {
	return periodic(c, y, triQuarter, TriWave)
}

// SawWave is 1 - 2*frac(t), with period 1.
func SawWave(t float64) float64 {
	return 1 - 2*(t-math.Floor(t))
}

// TriWave is 1 - 4*|t - round(t)|, with period 1 and TriWave(0) = 1.
func TriWave(t float64) float64 {
	return 1 - 4*math.Abs(t-math.Round(t))
}

func sawQuarter(t float64) float64 { return SawWave(t + 0.25) }

func triQuarter(t float64) float64 { return TriWave(t - 0.25) }
