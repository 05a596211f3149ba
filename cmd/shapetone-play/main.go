package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/shapetone/shapetone/catalog"
	"github.com/shapetone/shapetone/cmd"
	"github.com/shapetone/shapetone/config"
	"github.com/shapetone/shapetone/engine"
	"github.com/shapetone/shapetone/midi"
	"github.com/shapetone/shapetone/oto"
	"github.com/shapetone/shapetone/version"
)

var configFile = flag.String("config", "", "read the configuration from `file` instead of the user config directory")
var midiInput = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
var tones = flag.Bool("tone", true, "play the test tone of every slot into its channel")
var duration = flag.Duration("duration", 0, "stop after `d`; by default, play until interrupted")
var versionFlag = flag.Bool("v", false, "print version")

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	presets, err := catalog.Load(cfg.UserPresetDir())
	if presets == nil {
		log.Fatal(err)
	}
	if err != nil {
		log.Printf("some user presets were skipped: %v", err)
	}
	broker := engine.NewBroker()
	eng, err := engine.New(presets, broker, engine.Config{
		SampleRate: float64(cfg.SampleRate),
		BusGain:    cfg.BusGain,
		MasterGain: cfg.MasterGain,
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, s := range cfg.Slots {
		broker.ToEngine <- engine.MountMsg{Slot: s.Channel, Instrument: s.Instrument, Knobs: s.Knobs}
		if *tones && s.Tone > 0 {
			broker.ToEngine <- engine.SourceMsg{Slot: s.Channel, Source: newTone(s.Tone, cfg.SampleRate)}
		}
	}
	audioContext, err := oto.NewContext(cfg.SampleRate)
	if err != nil {
		log.Fatal(err)
	}
	if isFlagPassed("midi-input") {
		in, closeDriver, err := cmd.OpenMIDIInput(*midiInput)
		if err != nil {
			log.Printf("MIDI disabled: %v", err)
		} else {
			defer closeDriver()
			stop, err := midi.Listen(in, &cfg.MIDI, broker)
			if err != nil {
				log.Printf("failed to open MIDI input '%s': %v", in, err)
			} else {
				defer stop()
				log.Printf("listening to MIDI input '%s'", in)
			}
		}
	}
	player, err := audioContext.Play(eng.Render)
	if err != nil {
		log.Fatal(err)
	}
	done := make(chan struct{})
	go report(broker, done)
	wait(*duration)
	if err := player.Close(); err != nil {
		log.Print(err)
	}
	eng.Close()
	close(done)
}

// report logs the messages from the engine until done is closed.
func report(broker *engine.Broker, done <-chan struct{}) {
	for {
		select {
		case msg := <-broker.ToApp:
			switch m := msg.(type) {
			case engine.Alert:
				log.Printf("alert: %v", m)
			case engine.InstrumentChanged:
				log.Printf("slot %s: instrument %s", m.Slot, m.Instrument)
			}
		case <-done:
			return
		}
	}
}

func wait(d time.Duration) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)
	if d <= 0 {
		<-interrupt
		return
	}
	select {
	case <-interrupt:
	case <-time.After(d):
	}
}

// tone is a test source: a sine note retriggered twice a second with a
// quadratic decay, so that the effect tails are audible between the notes.
type tone struct {
	phase, inc float64
	n, period  int
}

func newTone(freq float64, sampleRate int) *tone {
	return &tone{inc: freq / float64(sampleRate), period: sampleRate / 2}
}

func (t *tone) Render(block []float32) {
	for i := range block {
		env := 1 - float64(t.n)/float64(t.period)
		block[i] = float32(0.3 * env * env * math.Sin(2*math.Pi*t.phase))
		t.phase += t.inc
		if t.phase >= 1 {
			t.phase--
		}
		t.n = (t.n + 1) % t.period
	}
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Shapetone command line utility for playing the configured slots through their effect chains.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
