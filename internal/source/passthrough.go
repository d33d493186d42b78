package source

import (
	"github.com/sirupsen/logrus"

	"github.com/junsooki/ScanFreeze/internal/capture"
)

// Passthrough delivers normalized device frames without any freezing.
type Passthrough struct {
	dev      capture.Device
	frameLen int
	log      logrus.FieldLogger
	state    State
}

// NewPassthrough creates a passthrough source for width x height frames.
func NewPassthrough(dev capture.Device, width, height int, log logrus.FieldLogger) *Passthrough {
	return &Passthrough{
		dev:      dev,
		frameLen: capture.FrameLen(width, height),
		log:      log,
	}
}

func (p *Passthrough) NextFrame() ([]byte, bool) {
	if p.state == Complete {
		return nil, false
	}
	frame, err := p.dev.Capture()
	if err != nil {
		p.state = Complete
		p.log.WithError(err).Info("capture failed, ending stream")
		return nil, false
	}
	if len(frame) != p.frameLen {
		p.state = Complete
		p.log.WithFields(logrus.Fields{"got": len(frame), "want": p.frameLen}).
			Warn("malformed frame length, ending stream")
		return nil, false
	}
	capture.NormalizeBGRA(frame)
	return frame, true
}

func (p *Passthrough) State() State { return p.state }
