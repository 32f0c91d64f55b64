package mdstream

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestStreamSimulateChunksAndSleeps(t *testing.T) {
	var slept []time.Duration
	orig := simulateSleep
	simulateSleep = func(d time.Duration) { slept = append(slept, d) }
	defer func() { simulateSleep = orig }()

	var c Collector
	err := StreamSimulate(StreamSimulateRequest{
		Reader:    strings.NewReader(streamDoc),
		Sink:      &c,
		ChunkSize: 2,
		Delay:     5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("stream simulate: %v", err)
	}
	if got := c.Nodes(); !reflect.DeepEqual(got, streamDocNodes) {
		t.Fatalf("unexpected nodes\nwant: %+v\n got: %+v", streamDocNodes, got)
	}
	if !c.Flushed {
		t.Fatalf("sink not flushed")
	}
	if len(slept) != len(streamDoc)/2 {
		t.Fatalf("slept %d times, want %d", len(slept), len(streamDoc)/2)
	}
	if slept[0] != 5*time.Millisecond {
		t.Fatalf("sleep = %v", slept[0])
	}
}

func TestStreamSimulateMatchesParse(t *testing.T) {
	t.Parallel()
	for _, size := range []int{1, 3, 7, 64, 4096} {
		for i, doc := range chunkCorpus {
			var sim Collector
			err := StreamSimulate(StreamSimulateRequest{
				Reader:    strings.NewReader(doc),
				Sink:      &sim,
				ChunkSize: size,
			})
			if err != nil {
				t.Fatalf("doc %d chunk %d: %v", i, size, err)
			}
			want := parseString(t, doc).Nodes()
			if got := sim.Nodes(); !reflect.DeepEqual(got, want) {
				t.Fatalf("doc %d chunk %d\nwant: %+v\n got: %+v", i, size, want, got)
			}
		}
	}
}

func TestStreamSimulatePartials(t *testing.T) {
	t.Parallel()
	var c Collector
	err := StreamSimulate(StreamSimulateRequest{
		Reader:    strings.NewReader("```go\nfmt.Println()\n```\n\nTrailing *words*"),
		Sink:      &c,
		ChunkSize: 3,
		Options:   []Option{WithPartialUpdates(true)},
	})
	if err != nil {
		t.Fatalf("stream simulate: %v", err)
	}
	if c.Partials == 0 || c.LastPartial == nil {
		t.Fatalf("no partial updates recorded")
	}
	want := para(text("Trailing "), italic(text("words")))
	if !reflect.DeepEqual(*c.LastPartial, want) {
		t.Fatalf("last partial\nwant: %+v\n got: %+v", want, *c.LastPartial)
	}
}

func TestStreamSimulateFrontMatter(t *testing.T) {
	t.Parallel()
	var c Collector
	err := StreamSimulate(StreamSimulateRequest{
		Reader:    strings.NewReader("---\ntitle: Sim\n---\n# Hi\n"),
		Sink:      &c,
		ChunkSize: 1,
		Options:   []Option{WithFrontMatter(true)},
	})
	if err != nil {
		t.Fatalf("stream simulate: %v", err)
	}
	if c.FrontMatter == nil || c.FrontMatter.Data["title"] != "Sim" {
		t.Fatalf("front matter = %+v", c.FrontMatter)
	}
	want := []Node{heading(1, text("Hi"))}
	if got := c.Nodes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected nodes\nwant: %+v\n got: %+v", want, got)
	}
}

func TestStreamSimulateInputCleaning(t *testing.T) {
	t.Parallel()
	var c Collector
	err := StreamSimulate(StreamSimulateRequest{
		Reader:    bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03, 0x04}),
		Sink:      &c,
		ChunkSize: 1,
	})
	if err != nil {
		t.Fatalf("stream simulate: %v", err)
	}
	if len(c.Elements) != 0 {
		t.Fatalf("expected no elements, got %d", len(c.Elements))
	}

	c = Collector{}
	err = StreamSimulate(StreamSimulateRequest{
		Reader:    strings.NewReader("h\xffé 😀\x01!\n"),
		Sink:      &c,
		ChunkSize: 1,
	})
	if err != nil {
		t.Fatalf("stream simulate: %v", err)
	}
	want := []Node{para(text("hé 😀!"))}
	if got := c.Nodes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected nodes\nwant: %+v\n got: %+v", want, got)
	}
}

func TestStreamSimulateErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		req  StreamSimulateRequest
		want error
		msg  string
	}{
		{name: "nil reader", req: StreamSimulateRequest{Sink: &Collector{}, ChunkSize: 1}, want: ErrNilReader},
		{name: "nil sink", req: StreamSimulateRequest{Reader: strings.NewReader("x"), ChunkSize: 1}, want: ErrNilSink},
		{name: "zero chunk", req: StreamSimulateRequest{Reader: strings.NewReader("x"), Sink: &Collector{}}, msg: "ChunkSize"},
		{
			name: "negative delay",
			req:  StreamSimulateRequest{Reader: strings.NewReader("x"), Sink: &Collector{}, ChunkSize: 1, Delay: -time.Second},
			msg:  "Delay",
		},
		{
			name: "strict invalid utf-8",
			req: StreamSimulateRequest{
				Reader:    strings.NewReader("ok\xff"),
				Sink:      &Collector{},
				ChunkSize: 1,
				Options:   []Option{WithStrictInput(true)},
			},
			want: ErrInvalidUTF8,
		},
		{
			name: "strict nul",
			req: StreamSimulateRequest{
				Reader:    strings.NewReader("ok\x00"),
				Sink:      &Collector{},
				ChunkSize: 1,
				Options:   []Option{WithStrictInput(true)},
			},
			want: ErrBinaryInput,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := StreamSimulate(tc.req)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !strings.Contains(err.Error(), "stream simulate") || !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("unexpected error text %q", err)
			}
		})
	}
}
