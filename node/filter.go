package node

import "math"

// biquad is a lowpass filter section with RBJ cookbook coefficients.
type biquad struct {
	sampleRate         float64
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) design(freq, q float64) {
	freq = min(freq, 0.49*f.sampleRate)
	w := 2 * math.Pi * freq / f.sampleRate
	alpha := math.Sin(w) / (2 * q)
	cw := math.Cos(w)
	a0 := 1 + alpha
	f.b0 = (1 - cw) / 2 / a0
	f.b1 = (1 - cw) / a0
	f.b2 = f.b0
	f.a1 = -2 * cw / a0
	f.a2 = (1 - alpha) / a0
}

func (f *biquad) tick(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// Filter is a resonant lowpass filter.
type Filter struct {
	wetDry
	biquad
	freq, q float64
}

func NewFilter(sampleRate float64) (*Filter, error) {
	if sampleRate <= 0 {
		return nil, errSampleRate
	}
	f := &Filter{biquad: biquad{sampleRate: sampleRate}, freq: 350, q: 1}
	f.design(f.freq, f.q)
	return f, nil
}

func (f *Filter) SetParameter(name string, value float64) {
	switch name {
	case "frequency":
		f.freq = value
	case "q":
		f.q = value
	case "wet":
		f.setWet(value)
		return
	}
	f.design(f.freq, f.q)
}

func (f *Filter) Process(block []float32) {
	f.save(block)
	for i, x := range block {
		block[i] = float32(f.tick(float64(x)))
	}
	f.blend(block)
}

// AutoFilter is a lowpass filter whose cutoff is swept by an LFO between
// basefrequency and basefrequency*2^octaves.
type AutoFilter struct {
	wetDry
	biquad
	lfo
	base, octaves, depth float64
}

func NewAutoFilter(sampleRate float64) (*AutoFilter, error) {
	if sampleRate <= 0 {
		return nil, errSampleRate
	}
	a := &AutoFilter{biquad: biquad{sampleRate: sampleRate}, lfo: lfo{sampleRate: sampleRate}}
	return a, nil
}

func (a *AutoFilter) SetParameter(name string, value float64) {
	switch name {
	case "frequency":
		a.setFrequency(value)
	case "basefrequency":
		a.base = value
	case "octaves":
		a.octaves = value
	case "depth":
		a.depth = value
	case "wet":
		a.setWet(value)
	}
}

func (a *AutoFilter) Start() { a.running = true }

func (a *AutoFilter) Process(block []float32) {
	a.save(block)
	for i, x := range block {
		// redesigning every 32 samples is plenty for an LFO sweep
		if i%32 == 0 {
			a.design(a.base*math.Pow(2, a.octaves*a.depth*a.next()), 1)
		} else {
			a.next()
		}
		block[i] = float32(a.tick(float64(x)))
	}
	a.blend(block)
}
