package node

import (
	"errors"
	"math"

	"github.com/viterin/vek/vek32"
)

var errSampleRate = errors.New("sample rate must be positive")

// wetDry keeps a copy of the dry input so that processors can blend their
// output with it.
type wetDry struct {
	wet float32
	dry []float32
}

func (w *wetDry) setWet(value float64) { w.wet = float32(value) }

// save copies block as the dry signal of the current block.
func (w *wetDry) save(block []float32) {
	if w.wet >= 1 {
		return
	}
	if cap(w.dry) < len(block) {
		w.dry = make([]float32, len(block))
	}
	w.dry = w.dry[:len(block)]
	copy(w.dry, block)
}

// blend replaces block, which holds the fully wet signal, with
// dry*(1-wet)+block*wet.
func (w *wetDry) blend(block []float32) {
	if w.wet >= 1 {
		return
	}
	vek32.MulNumber_Inplace(block, w.wet)
	vek32.MulNumber_Inplace(w.dry, 1-w.wet)
	vek32.Add_Inplace(block, w.dry)
}

// lfo is a sine oscillator in the range 0..1. It stays at its initial phase
// until started.
type lfo struct {
	phase      float64
	inc        float64
	sampleRate float64
	running    bool
}

func (l *lfo) setFrequency(hz float64) { l.inc = 2 * math.Pi * hz / l.sampleRate }

func (l *lfo) next() float64 {
	v := 0.5 + 0.5*math.Sin(l.phase)
	if l.running {
		l.phase += l.inc
		if l.phase >= 2*math.Pi {
			l.phase -= 2 * math.Pi
		}
	}
	return v
}

// ring is a circular delay line with fractional reads.
type ring struct {
	buf []float32
	pos int
}

func newRing(length int) ring {
	return ring{buf: make([]float32, max(length, 2))}
}

func (r *ring) write(v float32) {
	r.buf[r.pos] = v
	r.pos++
	if r.pos >= len(r.buf) {
		r.pos = 0
	}
}

// read returns the sample written delay samples before the next write.
func (r *ring) read(delay float64) float32 {
	delay = max(min(delay, float64(len(r.buf)-1)), 1)
	p := float64(r.pos) - delay
	for p < 0 {
		p += float64(len(r.buf))
	}
	i := int(p)
	frac := float32(p - float64(i))
	j := i + 1
	if j >= len(r.buf) {
		j = 0
	}
	return r.buf[i]*(1-frac) + r.buf[j]*frac
}
