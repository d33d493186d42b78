// Package display presents a FrameSource in a window, pulling one frame per
// tick.
package display

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/ScanFreeze/internal/source"
)

// Options configures a Window.
type Options struct {
	Title  string
	Width  int // frame width in pixels
	Height int // frame height in pixels
	FPS    int

	// Done stops the loop at the next tick once closed. Nil never stops.
	Done <-chan struct{}
}

// Window renders frames from a source with Ebitengine. The source is only
// ever called from the game loop goroutine.
type Window struct {
	src  source.FrameSource
	opts Options
	log  logrus.FieldLogger

	surface *ebiten.Image
	pix     []byte
	ticks   int
	ended   bool
}

// NewWindow creates a window for src.
func NewWindow(src source.FrameSource, opts Options, log logrus.FieldLogger) *Window {
	if opts.FPS <= 0 {
		opts.FPS = ebiten.DefaultTPS
	}
	return &Window{
		src:  src,
		opts: opts,
		log:  log,
		pix:  make([]byte, opts.Width*opts.Height*4),
	}
}

// Run starts the Ebitengine game loop and returns once the source ends or
// the window is closed. Must be called from the main goroutine.
func (w *Window) Run() error {
	ebiten.SetWindowSize(w.opts.Width, w.opts.Height)
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(w.opts.FPS)
	return ebiten.RunGame(w)
}

// Frames returns how many frames were presented.
func (w *Window) Frames() int { return w.ticks }

// Ended reports whether the source signalled end of stream.
func (w *Window) Ended() bool { return w.ended }

// --- ebiten.Game interface ---

func (w *Window) Update() error {
	select {
	case <-w.opts.Done:
		w.log.Info("stop requested")
		return ebiten.Termination
	default:
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		w.log.Info("quit requested")
		return ebiten.Termination
	}

	frame, ok := w.src.NextFrame()
	if !ok {
		w.ended = true
		return ebiten.Termination
	}
	if len(frame) != len(w.pix) {
		w.log.WithFields(logrus.Fields{"got": len(frame), "want": len(w.pix)}).
			Warn("dropping frame of unexpected size")
		return nil
	}
	copy(w.pix, frame)
	w.ticks++
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.surface == nil {
		w.surface = ebiten.NewImage(w.opts.Width, w.opts.Height)
	}
	w.surface.WritePixels(w.pix)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh),
		float64(w.opts.Width), float64(w.opts.Height))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(w.surface, op)
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}
