package node

// maxDelaySeconds is the longest delay time the delay lines are allocated for.
const maxDelaySeconds = 2

// Delay is a feedback delay.
type Delay struct {
	wetDry
	line       ring
	sampleRate float64
	delay      float64 // in samples
	feedback   float32
}

func NewDelay(sampleRate float64) (*Delay, error) {
	if sampleRate <= 0 {
		return nil, errSampleRate
	}
	return &Delay{line: newRing(int(sampleRate*maxDelaySeconds) + 1), sampleRate: sampleRate}, nil
}

func (d *Delay) SetParameter(name string, value float64) {
	switch name {
	case "delaytime":
		d.delay = value * d.sampleRate
	case "feedback":
		d.feedback = float32(value)
	case "wet":
		d.setWet(value)
	}
}

func (d *Delay) Process(block []float32) {
	d.save(block)
	for i, x := range block {
		y := d.line.read(d.delay)
		d.line.write(x + y*d.feedback)
		block[i] = y
	}
	d.blend(block)
}

func (d *Delay) Release() { d.line.buf = nil }

// Chorus is a delay line modulated by an LFO. The delay time is given in
// milliseconds and the depth as a fraction of it.
type Chorus struct {
	wetDry
	lfo
	line  ring
	delay float64 // in samples
	depth float64
}

func NewChorus(sampleRate float64) (*Chorus, error) {
	if sampleRate <= 0 {
		return nil, errSampleRate
	}
	// room for the longest delay time at full depth
	length := int(sampleRate*0.03*2) + 2
	return &Chorus{lfo: lfo{sampleRate: sampleRate}, line: newRing(length)}, nil
}

func (c *Chorus) SetParameter(name string, value float64) {
	switch name {
	case "frequency":
		c.setFrequency(value)
	case "delaytime":
		c.delay = value / 1000 * c.sampleRate
	case "depth":
		c.depth = value
	case "wet":
		c.setWet(value)
	}
}

func (c *Chorus) Start() { c.running = true }

func (c *Chorus) Process(block []float32) {
	c.save(block)
	for i, x := range block {
		c.line.write(x)
		d := c.delay * (1 + c.depth*(2*c.next()-1))
		block[i] = c.line.read(d + 1)
	}
	c.blend(block)
}

func (c *Chorus) Release() { c.line.buf = nil }
