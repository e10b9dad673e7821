package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"

	"github.com/vaultoo/warden/internal/events"
)

// FrameSender is the one grantor call the pipeline needs.
type FrameSender interface {
	SendFrame(ctx context.Context, token, frame string) error
}

// Options configures a Pipeline. Zero values select the governance defaults.
type Options struct {
	Quality int // JPEG quality factor (default 40)
	Scale   int // resolution divisor (default 2, half resolution)
	Limit   int // admission threshold in base64 characters (default 250000)
}

const (
	defaultQuality = 40
	defaultScale   = 2
	defaultLimit   = 250_000
)

// Pipeline captures, encodes, and ships frames. Ticks are single-flight by
// construction: the scheduler runs Capture sequentially on one goroutine.
// The pipeline itself holds no timer; it is driven by the session manager's
// scheduler so that it is cancelled as part of the same set.
type Pipeline struct {
	source Source
	sender FrameSender
	token  func() string // returns "" when governance is inactive
	pub    events.Publisher

	quality int
	scale   int
	limit   int

	// onSharing is invoked on Start(true) and Stop(false) so the session
	// bar's sharing indicator tracks the pipeline.
	onSharing func(bool)

	mu      sync.Mutex
	running bool

	sent    atomic.Int64
	dropped atomic.Int64
}

// New creates a pipeline. token must return the current session token, or
// the empty string when no governed session exists; every capture re-checks
// it so the pipeline stops producing the instant the record is cleared.
func New(source Source, sender FrameSender, token func() string, pub events.Publisher, onSharing func(bool), opts Options) *Pipeline {
	if opts.Quality <= 0 {
		opts.Quality = defaultQuality
	}
	if opts.Scale <= 0 {
		opts.Scale = defaultScale
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	return &Pipeline{
		source:    source,
		sender:    sender,
		token:     token,
		pub:       pub,
		quality:   opts.Quality,
		scale:     opts.Scale,
		limit:     opts.Limit,
		onSharing: onSharing,
	}
}

// Start marks the pipeline active and shows the sharing indicator. Starting
// an already-running pipeline is a no-op.
func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	if p.onSharing != nil {
		p.onSharing(true)
	}
	slog.Info("capture: started")
}

// Stop marks the pipeline inactive and removes the sharing indicator.
// Idempotent: stopping a stopped pipeline does nothing.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	if p.onSharing != nil {
		p.onSharing(false)
	}
	slog.Info("capture: stopped", "sent", p.sent.Load(), "dropped", p.dropped.Load())
}

// Sent returns the number of frames transmitted.
func (p *Pipeline) Sent() int64 { return p.sent.Load() }

// Dropped returns the number of frames rejected by the admission check.
func (p *Pipeline) Dropped() int64 { return p.dropped.Load() }

// Capture runs one tick: snapshot, encode, admission check, transmit.
// Transmission is fire-and-forget: an upload failure is logged and the
// pipeline continues on its next tick. Only encode failures are returned,
// since they indicate a broken source rather than a transient condition.
func (p *Pipeline) Capture(ctx context.Context) error {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running {
		return nil
	}

	token := p.token()
	if token == "" {
		return nil
	}

	img, err := p.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	frame, err := p.encode(img)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	if len(frame) > p.limit {
		p.dropped.Add(1)
		slog.Debug("capture: frame over admission limit, dropped", "size", len(frame), "limit", p.limit)
		_ = p.pub.Publish(ctx, events.TopicFrameDropped, events.FrameDropped{Size: len(frame), Limit: p.limit})
		return nil
	}

	if err := p.sender.SendFrame(ctx, token, frame); err != nil {
		slog.Warn("capture: frame upload failed", "error", err)
		return nil
	}
	p.sent.Add(1)
	return nil
}

// encode downscales and JPEG-encodes a snapshot, returning base64 text.
func (p *Pipeline) encode(img image.Image) (string, error) {
	scaled := downscale(img, p.scale)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: p.quality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// downscale shrinks img by the given divisor using approximate bilinear
// interpolation. A divisor of 1 returns the image unchanged.
func downscale(img image.Image, divisor int) image.Image {
	if divisor <= 1 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx()/divisor, b.Dy()/divisor
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
