package node

// Reverb is a Schroeder-Moorer reverb: parallel lowpass-feedback combs followed
// by series allpasses. Delay lengths are the Freeverb tunings at 44.1 kHz.
type Reverb struct {
	wetDry
	sampleRate float64
	combs      []comb
	allpasses  []allpass
}

type comb struct {
	buf      []float32
	pos      int
	feedback float32
	damp     float32
	store    float32
}

type allpass struct {
	buf []float32
	pos int
}

var (
	combTunings    = []int{1557, 1617, 1491, 1422, 1277, 1356, 1188, 1116}
	allpassTunings = []int{225, 556, 441, 341}
)

func NewReverb(sampleRate float64) (*Reverb, error) {
	if sampleRate <= 0 {
		return nil, errSampleRate
	}
	scale := sampleRate / 44100
	r := &Reverb{sampleRate: sampleRate}
	for _, t := range combTunings {
		r.combs = append(r.combs, comb{buf: make([]float32, max(int(float64(t)*scale), 1))})
	}
	for _, t := range allpassTunings {
		r.allpasses = append(r.allpasses, allpass{buf: make([]float32, max(int(float64(t)*scale), 1))})
	}
	return r, nil
}

func (r *Reverb) SetParameter(name string, value float64) {
	switch name {
	case "roomsize":
		for i := range r.combs {
			r.combs[i].feedback = float32(0.7 + 0.28*value)
		}
	case "dampening":
		for i := range r.combs {
			r.combs[i].damp = float32(0.4 * value)
		}
	case "wet":
		r.setWet(value)
	}
}

func (r *Reverb) Process(block []float32) {
	r.save(block)
	for i, x := range block {
		in := x * 0.015
		var out float32
		for c := range r.combs {
			out += r.combs[c].tick(in)
		}
		for a := range r.allpasses {
			out = r.allpasses[a].tick(out)
		}
		block[i] = out
	}
	r.blend(block)
}

func (r *Reverb) Release() {
	r.combs = nil
	r.allpasses = nil
}

func (c *comb) tick(x float32) float32 {
	y := c.buf[c.pos]
	c.store = y*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = x + c.store*c.feedback
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return y
}

func (a *allpass) tick(x float32) float32 {
	b := a.buf[a.pos]
	y := b - x
	a.buf[a.pos] = x + b*0.5
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return y
}
