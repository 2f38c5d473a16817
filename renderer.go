package halftone

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync/atomic"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/halftone/gpucore"
	"github.com/gogpu/halftone/shader"
)

// State is the lifecycle stage of a Renderer.
type State int

// Renderer states.
const (
	StateUninitialized State = iota
	StateCompiling
	StateReady
	StateFailed
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateCompiling:
		return "Compiling"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	case StateDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// eventQueueSize bounds pending completions.
const eventQueueSize = 16

// Renderer draws an image as three layers of halftone dots.
//
// A Renderer is not safe for concurrent use. Every method must be called
// from one goroutine, the render goroutine. Background work (shader
// fetch, link, image load) posts its results back as events that run
// during Dispatch, Wait, WaitReady or WaitIdle.
type Renderer struct {
	adapter gpucore.Adapter
	opts    options

	events   chan func()
	ctx      context.Context
	cancel   context.CancelFunc
	inflight atomic.Int32

	state     State
	err       error
	destroyed bool

	program   *shader.Program
	programID gpucore.ProgramID
	locs      shader.Locations

	resolution image.Point
	pendingRes image.Point
	grid       []Point
	vertices   *gpucore.VertexBuffer

	compositor *Compositor
	sprites    [3]gpucore.TextureID
	working    gpucore.TextureID
	source     image.Image
	overlay    *Overlay
	bands      [3]Band

	stack *Stack
}

// New creates a renderer drawing through a and starts loading its
// program and source image in the background.
//
// A nil adapter means no surface could be acquired; New logs it and
// returns ErrNoSurface.
func New(a gpucore.Adapter, opts ...Option) (*Renderer, error) {
	if a == nil {
		Logger().Error("halftone: no rendering surface available")
		return nil, ErrNoSurface
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	propagateLogger(a, Logger())

	ctx, cancel := context.WithCancel(context.Background())
	r := &Renderer{
		adapter: a,
		opts:    o,
		events:  make(chan func(), eventQueueSize),
		ctx:     ctx,
		cancel:  cancel,
		bands:   Bands(o.colors[0], o.colors[1], o.colors[2]),
	}
	if o.width > 0 || o.height > 0 {
		r.pendingRes = image.Pt(o.width, o.height)
	}

	r.state = StateCompiling
	r.loadShaders()
	if o.imageSource != "" {
		r.loadImage(o.imageSource)
	}
	Logger().Debug("halftone: renderer created", "adapter", a.Name(), "pitch", o.pitch)
	return r, nil
}

// async runs work on a new goroutine and posts the closure it returns to
// the render goroutine.
func (r *Renderer) async(work func(ctx context.Context) func()) {
	r.inflight.Add(1)
	go func() {
		fn := work(r.ctx)
		if !r.post(fn) {
			r.inflight.Add(-1)
		}
	}()
}

// post queues fn, blocking until there is room or the renderer is
// destroyed.
func (r *Renderer) post(fn func()) bool {
	select {
	case r.events <- r.wrap(fn):
		return true
	case <-r.ctx.Done():
		return false
	}
}

// tryPost queues fn unless the queue is full.
func (r *Renderer) tryPost(fn func()) bool {
	r.inflight.Add(1)
	select {
	case r.events <- r.wrap(fn):
		return true
	default:
		r.inflight.Add(-1)
		return false
	}
}

func (r *Renderer) wrap(fn func()) func() {
	return func() {
		defer r.inflight.Add(-1)
		if r.destroyed {
			return
		}
		fn()
	}
}

// Dispatch runs every queued event without blocking and returns how many
// ran.
func (r *Renderer) Dispatch() int {
	n := 0
	for {
		select {
		case fn := <-r.events:
			fn()
			n++
		default:
			return n
		}
	}
}

// Wait blocks until one event has run or ctx is done.
func (r *Renderer) Wait(ctx context.Context) error {
	if r.destroyed {
		return ErrDestroyed
	}
	select {
	case fn := <-r.events:
		fn()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitReady runs events until the renderer leaves the compiling state. It
// returns the failure for StateFailed and ErrDestroyed for a destroyed
// renderer.
func (r *Renderer) WaitReady(ctx context.Context) error {
	for r.state == StateCompiling {
		if err := r.Wait(ctx); err != nil {
			return err
		}
	}
	switch r.state {
	case StateFailed:
		return r.err
	case StateDestroyed:
		return ErrDestroyed
	}
	return nil
}

// WaitIdle runs events until no background work is pending.
func (r *Renderer) WaitIdle(ctx context.Context) error {
	for r.inflight.Load() > 0 {
		if err := r.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) loadShaders() {
	var vertexSrc, fragmentSrc string
	var fetchErr error

	l := newLatch(2, func(ok bool) {
		if !ok {
			r.fail(fetchErr)
			return
		}
		r.link(vertexSrc, fragmentSrc)
	})

	fetch := func(path string, dst *string) {
		r.async(func(ctx context.Context) func() {
			src, err := r.opts.shaderLoader.Fetch(ctx, path)
			return func() {
				if err != nil {
					if fetchErr == nil {
						fetchErr = err
					}
					l.Done(false)
					return
				}
				*dst = src
				l.Done(true)
			}
		})
	}
	fetch(r.opts.vertexPath, &vertexSrc)
	fetch(r.opts.fragmentPath, &fragmentSrc)
}

func (r *Renderer) link(vertexSrc, fragmentSrc string) {
	cache := r.opts.shaderCache
	if cache == nil {
		cache = shader.NewCache()
	}
	name := ProgramName
	if r.opts.vertexPath != shader.HalftoneVertexPath || r.opts.fragmentPath != shader.HalftoneFragmentPath {
		name = ProgramName + ":" + r.opts.vertexPath + "+" + r.opts.fragmentPath
	}
	r.async(func(context.Context) func() {
		p, err := cache.Program(name, vertexSrc, fragmentSrc)
		return func() {
			if err != nil {
				r.fail(err)
				return
			}
			r.onLinked(p)
		}
	})
}

func (r *Renderer) onLinked(p *shader.Program) {
	locs, err := shader.Resolve(p)
	if err != nil {
		r.fail(fmt.Errorf("%w: %v", shader.ErrCompile, err))
		return
	}
	id, err := r.adapter.CreateProgram(p)
	if err != nil {
		r.fail(fmt.Errorf("create program: %w", err))
		return
	}
	r.program, r.programID, r.locs = p, id, locs

	r.compositor = NewCompositor(r.adapter)
	for i, b := range r.bands {
		tex, err := r.compositor.BuildSpriteTexture(b.Color)
		if err != nil {
			r.fail(fmt.Errorf("%s sprite: %w", b.Name, err))
			return
		}
		r.sprites[i] = tex
	}

	r.vertices = gpucore.NewVertexBuffer(r.adapter, "halftone_grid", 2)
	if err := r.applyResolution(r.resolve(r.pendingRes)); err != nil {
		r.fail(err)
		return
	}
	r.pendingRes = image.Point{}

	r.state = StateReady
	Logger().Info("halftone: renderer ready",
		"adapter", r.adapter.Name(),
		"width", r.resolution.X, "height", r.resolution.Y,
		"points", len(r.grid))
	if err := r.Draw(); err != nil {
		Logger().Warn("halftone: initial draw failed", "err", err)
	}
}

// fail moves the renderer to StateFailed and releases what was built.
func (r *Renderer) fail(err error) {
	r.state = StateFailed
	r.err = err
	Logger().Error("halftone: renderer failed", "err", err)
	r.release()
}

func (r *Renderer) release() {
	if r.compositor != nil {
		r.compositor.Destroy()
		r.compositor = nil
	}
	r.sprites = [3]gpucore.TextureID{}
	r.working = gpucore.InvalidID
	if r.vertices != nil {
		r.vertices.Destroy()
		r.vertices = nil
	}
	if r.programID != gpucore.InvalidID {
		r.adapter.DestroyProgram(r.programID)
		r.programID = gpucore.InvalidID
	}
	r.program = nil
}

func (r *Renderer) loadImage(src string) {
	loader := r.opts.imageLoader
	r.async(func(ctx context.Context) func() {
		img, err := loader.LoadImage(ctx, src)
		return func() { r.onImageLoaded(src, img, err) }
	})
}

func (r *Renderer) onImageLoaded(src string, img image.Image, err error) {
	if err != nil {
		Logger().Warn("halftone: image load failed, keeping placeholder", "src", src, "err", err)
		return
	}
	r.source = img
	if r.state != StateReady {
		return
	}
	if err := r.rebuildWorking(); err != nil {
		Logger().Warn("halftone: working texture rebuild failed", "err", err)
		return
	}
	if err := r.Draw(); err != nil {
		Logger().Warn("halftone: draw after image load failed", "err", err)
	}
	if r.opts.window != nil {
		r.opts.window.RequestRedraw()
	}
}

// viewport returns the window size in device pixels, or the default
// resolution without a window.
func (r *Renderer) viewport() image.Point {
	if w := r.opts.window; w != nil {
		width, height := w.Size()
		scale := w.ScaleFactor()
		if scale <= 0 {
			scale = 1
		}
		if width > 0 && height > 0 {
			return image.Pt(
				int(math.Round(float64(width)*scale)),
				int(math.Round(float64(height)*scale)),
			)
		}
	}
	return image.Pt(DefaultWidth, DefaultHeight)
}

// resolve fills non-positive dimensions from the viewport.
func (r *Renderer) resolve(res image.Point) image.Point {
	if res.X > 0 && res.Y > 0 {
		return res
	}
	vp := r.viewport()
	if res.X <= 0 {
		res.X = vp.X
	}
	if res.Y <= 0 {
		res.Y = vp.Y
	}
	return res
}

func (r *Renderer) applyResolution(res image.Point) error {
	prev := r.resolution
	if err := r.adapter.Resize(res.X, res.Y); err != nil {
		return fmt.Errorf("resize target: %w", err)
	}
	grid := Generate(res.X, res.Y, r.opts.pitch)
	if err := r.vertices.Upload(Flatten(grid)); err != nil {
		if prev.X > 0 && prev.Y > 0 {
			if rerr := r.adapter.Resize(prev.X, prev.Y); rerr != nil {
				Logger().Warn("halftone: restore target size failed", "err", rerr)
			}
		}
		return err
	}
	r.resolution = res
	r.grid = grid
	Logger().Debug("halftone: grid generated", "width", res.X, "height", res.Y, "points", len(grid))
	return r.rebuildWorking()
}

func (r *Renderer) rebuildWorking() error {
	tex, err := r.compositor.BuildWorkingTexture(r.source, r.resolution, r.overlay)
	if err != nil {
		return err
	}
	r.working = tex
	return nil
}

// Draw renders one frame: the dark, mid and light layers in that order.
//
// Draw does nothing before the renderer is ready and returns ErrDestroyed
// after Destroy.
func (r *Renderer) Draw() error {
	if r.destroyed {
		return ErrDestroyed
	}
	if r.state != StateReady {
		return nil
	}

	enc, err := r.adapter.BeginFrame(gpucore.Transparent)
	if err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	enc.SetProgram(r.programID)
	r.vertices.Bind(enc, r.locs.Position)
	enc.SetUniform(r.locs.Resolution, float32(r.resolution.X), float32(r.resolution.Y))
	enc.SetUniform(r.locs.MinSize, MinSize)
	enc.SetUniform(r.locs.MaxSize, float32(r.opts.pitch))
	enc.SetUniform(r.locs.ImageSize, WorkingSize)
	enc.BindTexture(r.locs.Image, r.working)

	count := r.vertices.Count()
	for i, b := range r.bands {
		enc.BindTexture(r.locs.Sprite, r.sprites[i])
		enc.SetUniform(r.locs.Low, float32(b.Low))
		enc.SetUniform(r.locs.High, float32(b.High))
		enc.DrawPoints(count)
	}
	if err := enc.End(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	return nil
}

// SetResolution changes the resolution in device pixels. A non-positive
// dimension falls back to the viewport.
//
// Before the renderer is ready the request is recorded and applied during
// initialization.
func (r *Renderer) SetResolution(width, height int) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if r.state != StateReady {
		if r.state == StateCompiling {
			r.pendingRes = image.Pt(width, height)
		}
		return nil
	}
	res := r.resolve(image.Pt(width, height))
	if res == r.resolution {
		return nil
	}
	if err := r.applyResolution(res); err != nil {
		return err
	}
	return r.Draw()
}

// PointerMoved moves the pointer overlay to the given viewport fractions
// and redraws. It does nothing unless the renderer is ready and the
// overlay is enabled.
func (r *Renderer) PointerMoved(x, y float64) {
	if r.destroyed || r.state != StateReady || !r.opts.overlay {
		return
	}
	r.overlay = &Overlay{X: x, Y: y}
	if err := r.rebuildWorking(); err != nil {
		Logger().Warn("halftone: overlay update failed", "err", err)
		return
	}
	if err := r.Draw(); err != nil {
		Logger().Warn("halftone: draw after pointer move failed", "err", err)
	}
}

// HandlePointer maps a pointer move in window coordinates to PointerMoved.
// Other event types are ignored.
func (r *Renderer) HandlePointer(ev gpucontext.PointerEvent) {
	if ev.Type != gpucontext.PointerMove {
		return
	}
	var w, h float64
	if r.opts.window != nil {
		ww, wh := r.opts.window.Size()
		w, h = float64(ww), float64(wh)
	} else {
		w, h = float64(r.resolution.X), float64(r.resolution.Y)
	}
	if w <= 0 || h <= 0 {
		return
	}
	r.PointerMoved(ev.X/w, ev.Y/h)
}

// Track subscribes to pointer events from src. Events are queued and
// handled on the render goroutine; events arriving while the queue is
// full are dropped.
func (r *Renderer) Track(src gpucontext.PointerEventSource) {
	src.OnPointer(func(ev gpucontext.PointerEvent) {
		r.tryPost(func() { r.HandlePointer(ev) })
	})
}

// AppendTo places the renderer on top of s and returns it.
func (r *Renderer) AppendTo(s *Stack) *Renderer {
	r.detach()
	s.Append(r)
	r.stack = s
	return r
}

// PrependTo places the renderer at the bottom of s and returns it.
func (r *Renderer) PrependTo(s *Stack) *Renderer {
	r.detach()
	s.Prepend(r)
	r.stack = s
	return r
}

func (r *Renderer) detach() {
	if r.stack != nil {
		r.stack.Remove(r)
		r.stack = nil
	}
}

// Snapshot reads back the last drawn frame.
func (r *Renderer) Snapshot() (*image.RGBA, error) {
	if r.destroyed {
		return nil, ErrDestroyed
	}
	if r.state != StateReady {
		return nil, ErrNotReady
	}
	return r.adapter.ReadPixels()
}

// State returns the lifecycle state.
func (r *Renderer) State() State { return r.state }

// Err returns the failure that moved the renderer to StateFailed.
func (r *Renderer) Err() error { return r.err }

// Resolution returns the current resolution, zero before the renderer is
// ready.
func (r *Renderer) Resolution() image.Point { return r.resolution }

// Grid returns a copy of the current point grid.
func (r *Renderer) Grid() []Point {
	out := make([]Point, len(r.grid))
	copy(out, r.grid)
	return out
}

// Destroy releases the renderer's GPU resources and cancels background
// work. The adapter itself is not closed. Destroy is idempotent.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.cancel()
	r.release()
	r.detach()
	r.state = StateDestroyed
	Logger().Debug("halftone: renderer destroyed")
}
