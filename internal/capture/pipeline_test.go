package capture

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
)

// fakeSender records every transmitted frame.
type fakeSender struct {
	mu     sync.Mutex
	frames []string
	tokens []string
	err    error
}

func (f *fakeSender) SendFrame(ctx context.Context, token, frame string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tokens = append(f.tokens, token)
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// fakeSource returns a fixed image.
type fakeSource struct {
	img image.Image
	err error
}

func (f *fakeSource) Snapshot(ctx context.Context) (image.Image, error) {
	return f.img, f.err
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Noisy content so JPEG output is not trivially small.
			img.Pix[img.PixOffset(x, y)] = uint8(x * y)
		}
	}
	return img
}

func staticToken(tok string) func() string {
	return func() string { return tok }
}

func TestPipeline_CaptureSendsFrame(t *testing.T) {
	sender := &fakeSender{}
	p := New(&fakeSource{img: testImage(64, 48)}, sender, staticToken("tok-1"), nil, nil, Options{})
	p.Start()

	if err := p.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if sender.calls() != 1 {
		t.Fatalf("sender calls = %d, want 1", sender.calls())
	}
	if sender.tokens[0] != "tok-1" {
		t.Errorf("token = %q", sender.tokens[0])
	}
	if sender.frames[0] == "" {
		t.Error("empty frame transmitted")
	}
	if p.Sent() != 1 || p.Dropped() != 0 {
		t.Errorf("counters sent=%d dropped=%d", p.Sent(), p.Dropped())
	}
}

func TestPipeline_OversizedFrameNeverTransmitted(t *testing.T) {
	sender := &fakeSender{}
	// A limit of 10 characters guarantees any real frame fails admission.
	p := New(&fakeSource{img: testImage(64, 48)}, sender, staticToken("tok-1"), nil, nil, Options{Limit: 10})
	p.Start()

	if err := p.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if sender.calls() != 0 {
		t.Fatalf("oversized frame reached the sender (%d calls)", sender.calls())
	}
	if p.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", p.Dropped())
	}

	// Dropping is not fatal: the next tick with a reasonable limit sends.
	p.limit = defaultLimit
	if err := p.Capture(context.Background()); err != nil {
		t.Fatalf("Capture after drop: %v", err)
	}
	if sender.calls() != 1 {
		t.Errorf("sender calls after drop = %d, want 1", sender.calls())
	}
}

func TestPipeline_InactiveWithoutStart(t *testing.T) {
	sender := &fakeSender{}
	p := New(&fakeSource{img: testImage(8, 8)}, sender, staticToken("tok-1"), nil, nil, Options{})

	if err := p.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if sender.calls() != 0 {
		t.Errorf("capture ran without Start (%d calls)", sender.calls())
	}
}

func TestPipeline_StopsWhenRecordCleared(t *testing.T) {
	sender := &fakeSender{}
	tok := "tok-1"
	p := New(&fakeSource{img: testImage(8, 8)}, sender, func() string { return tok }, nil, nil, Options{})
	p.Start()

	if err := p.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	tok = "" // record cleared mid-flight
	if err := p.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if sender.calls() != 1 {
		t.Errorf("sender calls = %d, want 1 (no capture after record cleared)", sender.calls())
	}
}

func TestPipeline_UploadFailureNotFatal(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	p := New(&fakeSource{img: testImage(8, 8)}, sender, staticToken("tok-1"), nil, nil, Options{})
	p.Start()

	if err := p.Capture(context.Background()); err != nil {
		t.Fatalf("Capture returned error for failed upload: %v", err)
	}

	sender.err = nil
	if err := p.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if sender.calls() != 1 {
		t.Errorf("pipeline did not continue after upload failure (%d calls)", sender.calls())
	}
}

func TestPipeline_SnapshotErrorReturned(t *testing.T) {
	p := New(&fakeSource{err: errors.New("display gone")}, &fakeSender{}, staticToken("tok-1"), nil, nil, Options{})
	p.Start()
	if err := p.Capture(context.Background()); err == nil {
		t.Fatal("expected snapshot error")
	}
}

func TestPipeline_SharingIndicator(t *testing.T) {
	var states []bool
	p := New(&fakeSource{img: testImage(8, 8)}, &fakeSender{}, staticToken("tok-1"), nil,
		func(on bool) { states = append(states, on) }, Options{})

	p.Start()
	p.Start() // no-op
	p.Stop()
	p.Stop() // no-op

	want := []bool{true, false}
	if len(states) != len(want) {
		t.Fatalf("indicator transitions = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("indicator transitions = %v, want %v", states, want)
		}
	}
}

func TestDownscale_HalvesDimensions(t *testing.T) {
	src := testImage(100, 60)
	got := downscale(src, 2)
	b := got.Bounds()
	if b.Dx() != 50 || b.Dy() != 30 {
		t.Errorf("downscaled bounds = %dx%d, want 50x30", b.Dx(), b.Dy())
	}
}

func TestDownscale_DivisorOneIsIdentity(t *testing.T) {
	src := testImage(10, 10)
	if got := downscale(src, 1); got != src {
		t.Error("divisor 1 should return the source image unchanged")
	}
}

func TestViewportRenderer_Snapshot(t *testing.T) {
	r := NewViewportRenderer(200, 100, func() []string {
		return []string{"question 3 of 10", "answer draft"}
	})
	img, err := r.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("bounds = %dx%d, want 200x100", b.Dx(), b.Dy())
	}

	// Text rendering must leave at least one foreground pixel.
	fg := 0
	rgba := img.(*image.RGBA)
	for i := 0; i < len(rgba.Pix); i += 4 {
		if rgba.Pix[i] == viewportFG.R && rgba.Pix[i+1] == viewportFG.G {
			fg++
		}
	}
	if fg == 0 {
		t.Error("no foreground pixels rendered")
	}
}

func TestViewportRenderer_Defaults(t *testing.T) {
	r := NewViewportRenderer(0, -1, nil)
	img, err := r.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != DefaultViewportWidth || b.Dy() != DefaultViewportHeight {
		t.Errorf("bounds = %dx%d, want defaults", b.Dx(), b.Dy())
	}
}
