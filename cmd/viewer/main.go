package main

import (
	"encoding/json"
	"errors"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/ScanFreeze/internal/capture"
	"github.com/junsooki/ScanFreeze/internal/config"
	"github.com/junsooki/ScanFreeze/internal/decoder"
	"github.com/junsooki/ScanFreeze/internal/display"
	"github.com/junsooki/ScanFreeze/internal/peer"
	"github.com/junsooki/ScanFreeze/internal/signaling"
	"github.com/junsooki/ScanFreeze/internal/source"
)

func main() {
	cfg, err := config.ParseViewerFlags(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}

	logger := logrus.New()
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.WithFields(logrus.Fields{
		"host":   cfg.HostURL,
		"width":  cfg.Width,
		"height": cfg.Height,
	}).Info("ScanFreeze viewer starting")

	dec := decoder.NewJPEGDecoder()
	latest := source.NewLatest(capture.FrameLen(cfg.Width, cfg.Height))

	var viewers slot[*peer.Viewer]
	var sig *signaling.Client
	sig = signaling.NewClient(cfg.HostURL, signaling.Handler{
		OnRegistered: func(id string) {
			logger.WithField("id", id).Info("registered with host")

			viewer, err := peer.NewViewer(sig, logger)
			if err != nil {
				logger.WithError(err).Error("create viewer peer")
				latest.Close()
				return
			}
			viewer.Transport().OnFrame(func(data []byte) {
				img, err := dec.Decode(data)
				if err != nil {
					logger.WithError(err).Debug("decode frame")
					return
				}
				if img.Bounds().Dx() != cfg.Width || img.Bounds().Dy() != cfg.Height {
					logger.WithFields(logrus.Fields{
						"width":  img.Bounds().Dx(),
						"height": img.Bounds().Dy(),
					}).Warn("dropping frame of unexpected size")
					return
				}
				latest.Set(img.Pix)
			})
			viewers.Store(viewer)
			if err := viewer.Connect(); err != nil {
				logger.WithError(err).Error("viewer connect")
			}
		},
		OnAnswer: func(payload json.RawMessage) {
			if viewer, ok := viewers.Load(); ok {
				if err := viewer.HandleAnswer(payload); err != nil {
					logger.WithError(err).Error("handle answer")
				}
			}
		},
		OnICECandidate: func(payload json.RawMessage) {
			if viewer, ok := viewers.Load(); ok {
				if err := viewer.HandleICECandidate(payload); err != nil {
					logger.WithError(err).Warn("handle ICE candidate")
				}
			}
		},
		OnError: func(msg string) {
			logger.WithField("message", msg).Warn("signaling error")
		},
		OnClose: func() {
			logger.Info("host went away")
			latest.Close()
		},
	}, logger)

	if err := sig.Connect(); err != nil {
		logger.WithError(err).Fatal("signaling connect")
	}
	defer sig.Close()

	// Ebitengine RunGame must be on the main goroutine (macOS requirement).
	win := display.NewWindow(latest, display.Options{
		Title:  "ScanFreeze Viewer",
		Width:  cfg.Width,
		Height: cfg.Height,
	}, logger)
	if err := win.Run(); err != nil {
		logger.WithError(err).Error("display")
	}

	if viewer, ok := viewers.Load(); ok {
		viewer.Close()
	}
}
