package node

// Tremolo modulates the amplitude of the signal with an LFO.
type Tremolo struct {
	wetDry
	lfo
	depth float64
}

func NewTremolo(sampleRate float64) (*Tremolo, error) {
	if sampleRate <= 0 {
		return nil, errSampleRate
	}
	return &Tremolo{lfo: lfo{sampleRate: sampleRate}}, nil
}

func (t *Tremolo) SetParameter(name string, value float64) {
	switch name {
	case "frequency":
		t.setFrequency(value)
	case "depth":
		t.depth = value
	case "wet":
		t.setWet(value)
	}
}

func (t *Tremolo) Start() { t.running = true }

func (t *Tremolo) Process(block []float32) {
	t.save(block)
	for i, x := range block {
		block[i] = x * float32(1-t.depth*t.next())
	}
	t.blend(block)
}
