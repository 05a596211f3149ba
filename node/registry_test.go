package node_test

import (
	"errors"
	"math"
	"testing"

	"github.com/shapetone/shapetone"
	"github.com/shapetone/shapetone/graph"
	"github.com/shapetone/shapetone/node"
)

const sampleRate = 44100

func TestRegistryRegister(t *testing.T) {
	r := node.NewRegistry(graph.NewContext(sampleRate))
	factory := func(*graph.Context) (graph.Processor, error) { return &node.Gain{}, nil }
	if err := r.Register("gain", factory); err != nil {
		t.Fatalf("Register returned unexpected error: %v", err)
	}
	if r.Lookup("gain") == nil {
		t.Fatal("Lookup returned nil for registered kind")
	}
	if err := r.Register("gain", factory); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
	if err := r.Register("", factory); err == nil {
		t.Fatal("expected error for empty kind")
	}
	if err := r.Register("other", nil); err == nil {
		t.Fatal("expected error for nil factory")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate MustRegister")
		}
	}()
	r.MustRegister("gain", factory)
}

func TestDefaultRegistryCoversNodeKinds(t *testing.T) {
	r := node.DefaultRegistry(graph.NewContext(sampleRate))
	for _, kind := range shapetone.NodeKindNames {
		if r.Lookup(kind) == nil {
			t.Errorf("no factory for node kind %q", kind)
		}
	}
}

func TestCreate(t *testing.T) {
	ctx := graph.NewContext(sampleRate)
	r := node.DefaultRegistry(ctx)
	n, err := r.Create(shapetone.NodeDescriptor{Kind: "delay", Params: map[string]float64{"delaytime": 0.5, "wet": 0.25}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if v, _ := n.Parameter("delaytime"); v != 0.5 {
		t.Errorf("delaytime = %v, want 0.5", v)
	}
	if v, _ := n.Parameter("feedback"); v != 0.125 {
		t.Errorf("feedback = %v, want default 0.125", v)
	}
	if n.Started() {
		t.Error("Create should not start the node")
	}
	n.Dispose()
	if ctx.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", ctx.Live())
	}
}

func TestCreateErrors(t *testing.T) {
	ctx := graph.NewContext(sampleRate)
	r := node.DefaultRegistry(ctx)
	tests := []struct {
		name string
		desc shapetone.NodeDescriptor
		want error
	}{
		{"unsupported kind", shapetone.NodeDescriptor{Kind: "flux-capacitor"}, shapetone.ErrUnsupportedNodeKind},
		{"empty kind", shapetone.NodeDescriptor{}, shapetone.ErrUnsupportedNodeKind},
		{"unknown parameter", shapetone.NodeDescriptor{Kind: "reverb", Params: map[string]float64{"decay": 3}}, shapetone.ErrUnknownParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := r.Create(tt.desc)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Create error = %v, want %v", err, tt.want)
			}
			if n != nil {
				t.Fatal("Create should not return a node on error")
			}
			if ctx.Live() != 0 {
				t.Fatalf("Live() = %d after failed Create, want 0", ctx.Live())
			}
		})
	}
}

func impulse(n int) []float32 {
	b := make([]float32, n)
	b[0] = 1
	return b
}

func TestProcessorsStayFinite(t *testing.T) {
	ctx := graph.NewContext(sampleRate)
	r := node.DefaultRegistry(ctx)
	for _, kind := range shapetone.NodeKindNames {
		t.Run(kind, func(t *testing.T) {
			n, err := r.Create(shapetone.NodeDescriptor{Kind: kind})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			defer n.Dispose()
			if err := n.Start(); err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			for i := 0; i < 20; i++ {
				block := impulse(512)
				n.Push(block)
				for j, v := range block {
					if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
						t.Fatalf("block %d sample %d is not finite: %v", i, j, v)
					}
				}
			}
		})
	}
}

func TestDryPassesThrough(t *testing.T) {
	ctx := graph.NewContext(sampleRate)
	r := node.DefaultRegistry(ctx)
	for _, kind := range shapetone.NodeKindNames {
		if _, ok := shapetone.NodeKinds[kind].Param("wet"); !ok {
			continue
		}
		t.Run(kind, func(t *testing.T) {
			n, err := r.Create(shapetone.NodeDescriptor{Kind: kind, Params: map[string]float64{"wet": 0}})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			defer n.Dispose()
			block := []float32{0.5, -0.25, 0.125, 0}
			n.Push(block)
			want := []float32{0.5, -0.25, 0.125, 0}
			for i := range want {
				if math.Abs(float64(block[i]-want[i])) > 1e-6 {
					t.Fatalf("block = %v, want %v", block, want)
				}
			}
		})
	}
}

func TestDelayEchoes(t *testing.T) {
	ctx := graph.NewContext(sampleRate)
	r := node.DefaultRegistry(ctx)
	n, err := r.Create(shapetone.NodeDescriptor{Kind: "delay", Params: map[string]float64{"delaytime": 100.0 / sampleRate, "feedback": 0}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	block := impulse(256)
	n.Push(block)
	if math.Abs(float64(block[100]-1)) > 1e-6 {
		t.Fatalf("expected the impulse at sample 100, got %v", block[100])
	}
	if block[0] != 0 {
		t.Fatalf("expected silence at sample 0, got %v", block[0])
	}
}

func TestTremoloNeedsStart(t *testing.T) {
	ctx := graph.NewContext(sampleRate)
	r := node.DefaultRegistry(ctx)
	n, err := r.Create(shapetone.NodeDescriptor{Kind: "tremolo", Params: map[string]float64{"frequency": 5, "depth": 1}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	ones := func() []float32 {
		b := make([]float32, 4410)
		for i := range b {
			b[i] = 1
		}
		return b
	}
	frozen := ones()
	n.Push(frozen)
	if frozen[0] != frozen[len(frozen)-1] {
		t.Fatalf("stopped tremolo should not modulate, got %v and %v", frozen[0], frozen[len(frozen)-1])
	}
	n.Start()
	running := ones()
	n.Push(running)
	if running[0] == running[len(running)/4] {
		t.Fatal("started tremolo should modulate the signal")
	}
}
