package shapetone

// Source produces the dry signal of one channel, e.g. the synth voices of the
// shapes of one color. Render fills the whole block with mono samples.
type Source interface {
	Render(block []float32)
}

// SourceFunc adapts a plain function to a Source.
type SourceFunc func(block []float32)

func (f SourceFunc) Render(block []float32) { f(block) }

// AudioOutput is the audio device the master channel is played on.
type AudioOutput interface {
	Play(render func(block []float32)) (AudioPlayer, error)
}

// AudioPlayer is a running playback on an AudioOutput.
type AudioPlayer interface {
	Close() error
}
