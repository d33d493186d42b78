package source

import (
	"fmt"
	"image/color"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/ScanFreeze/internal/capture"
	"github.com/junsooki/ScanFreeze/internal/freeze"
)

// Options configures a Freeze source.
type Options struct {
	Width       int
	Height      int
	RowsPerStep int
	Marker      color.RGBA
}

// Freeze is the scan-line freeze source: every call captures a frame,
// normalizes it to RGBA, freezes the next rows and composites the result.
// Once it reports false it stays complete.
type Freeze struct {
	dev    capture.Device
	acc    *freeze.Accumulator
	comp   *freeze.Compositor
	log    logrus.FieldLogger
	state  State
	frames int
}

// NewFreeze wires dev to a fresh accumulator and compositor.
func NewFreeze(dev capture.Device, opts Options, log logrus.FieldLogger) (*Freeze, error) {
	acc, err := freeze.NewAccumulator(opts.Width, opts.Height, opts.RowsPerStep)
	if err != nil {
		return nil, fmt.Errorf("freeze source: %w", err)
	}
	return &Freeze{
		dev:  dev,
		acc:  acc,
		comp: freeze.NewCompositor(opts.Width, opts.Marker),
		log:  log,
	}, nil
}

func (f *Freeze) NextFrame() ([]byte, bool) {
	if f.state == Complete {
		return nil, false
	}

	live, err := f.dev.Capture()
	if err != nil {
		f.complete().WithError(err).Info("capture failed, ending stream")
		return nil, false
	}
	if want := f.acc.FrameBytes(); len(live) != want {
		f.complete().WithFields(logrus.Fields{"got": len(live), "want": want}).
			Warn("malformed frame length, ending stream")
		return nil, false
	}
	capture.NormalizeBGRA(live)

	f.acc.Freeze(live)
	out, ok := f.comp.Compose(live, f.acc)
	if !ok {
		f.complete().Info("all rows frozen")
		return nil, false
	}
	f.frames++
	return out, true
}

// State reports whether rows remain to freeze.
func (f *Freeze) State() State { return f.state }

// Frames is the number of composite frames produced so far.
func (f *Freeze) Frames() int { return f.frames }

// Accumulator exposes the frozen state for inspection. It must not be
// mutated by the caller.
func (f *Freeze) Accumulator() *freeze.Accumulator { return f.acc }

func (f *Freeze) complete() *logrus.Entry {
	f.state = Complete
	return f.log.WithFields(logrus.Fields{
		"frames":        f.frames,
		"frozen_rows":   f.acc.NextRow(),
		"height":        f.acc.Height(),
		"rows_per_step": f.acc.RowsPerStep(),
		"width":         f.acc.Width(),
	})
}
