package node

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Gain multiplies the signal by a constant.
type Gain struct {
	gain float32
}

func (g *Gain) SetParameter(name string, value float64) {
	if name == "gain" {
		g.gain = float32(value)
	}
}

func (g *Gain) Process(block []float32) {
	if g.gain == 1 {
		return
	}
	vek32.MulNumber_Inplace(block, g.gain)
}

// Distortion is a soft waveshaper. The distortion amount 0..1 maps to the
// steepness of the curve.
type Distortion struct {
	wetDry
	k float32
}

func (d *Distortion) SetParameter(name string, value float64) {
	switch name {
	case "distortion":
		d.k = float32(2 * value / (1 - min(value, 0.999)))
	case "wet":
		d.setWet(value)
	}
}

func (d *Distortion) Process(block []float32) {
	d.save(block)
	for i, x := range block {
		a := x
		if a < 0 {
			a = -a
		}
		block[i] = (1 + d.k) * x / (1 + d.k*a)
	}
	d.blend(block)
}

// BitCrusher quantizes the signal to the given number of bits.
type BitCrusher struct {
	wetDry
	step float32
}

func (b *BitCrusher) SetParameter(name string, value float64) {
	switch name {
	case "bits":
		b.step = float32(math.Pow(2, value-1))
	case "wet":
		b.setWet(value)
	}
}

func (b *BitCrusher) Process(block []float32) {
	b.save(block)
	for i, x := range block {
		block[i] = float32(math.Round(float64(x*b.step))) / b.step
	}
	b.blend(block)
}
