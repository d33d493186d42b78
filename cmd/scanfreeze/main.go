package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/ScanFreeze/internal/capture"
	"github.com/junsooki/ScanFreeze/internal/capture/camera"
	"github.com/junsooki/ScanFreeze/internal/config"
	"github.com/junsooki/ScanFreeze/internal/display"
	"github.com/junsooki/ScanFreeze/internal/encoder"
	"github.com/junsooki/ScanFreeze/internal/preview"
	"github.com/junsooki/ScanFreeze/internal/source"
)

func main() {
	cfg, err := config.ParseFlags(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}

	logger := initLogger(cfg.Debug)
	logger.WithFields(logrus.Fields{
		"width":   cfg.Width,
		"height":  cfg.Height,
		"rows":    cfg.RowsPerStep,
		"marker":  cfg.Marker,
		"device":  cfg.Device,
		"mode":    cfg.Mode,
		"fps":     cfg.FPS,
		"preview": cfg.PreviewAddr,
	}).Info("ScanFreeze starting")

	dev, err := openDevice(cfg)
	if err != nil {
		logger.WithError(err).Fatal("open device")
	}
	defer dev.Close()

	var src source.FrameSource
	switch cfg.Mode {
	case config.ModePassthrough:
		src = source.NewPassthrough(dev, cfg.Width, cfg.Height, logger)
	default:
		src, err = source.NewFreeze(dev, source.Options{
			Width:       cfg.Width,
			Height:      cfg.Height,
			RowsPerStep: cfg.RowsPerStep,
			Marker:      cfg.MarkerColor(),
		}, logger)
		if err != nil {
			logger.WithError(err).Fatal("build freeze source")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.PreviewAddr != "" {
		b := preview.NewBroadcaster(encoder.NewJPEGEncoder(cfg.Quality), cfg.Width, cfg.Height, logger)
		defer func() {
			logger.WithField("stats", b.Stats()).Info("preview stopped")
			b.Close()
		}()
		srv := preview.NewServer(b, logger)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.PreviewAddr); err != nil {
				logger.WithError(err).Error("preview server")
			}
		}()
		src = preview.Tap(src, b)
	}

	// Ebitengine RunGame must be on the main goroutine (macOS requirement).
	win := display.NewWindow(src, display.Options{
		Title:  "ScanFreeze",
		Width:  cfg.Width,
		Height: cfg.Height,
		FPS:    cfg.FPS,
		Done:   ctx.Done(),
	}, logger)

	start := time.Now()
	if err := win.Run(); err != nil {
		logger.WithError(err).Error("display")
	}
	logger.WithFields(logrus.Fields{
		"frames":   win.Frames(),
		"complete": win.Ended(),
		"seconds":  time.Since(start).Seconds(),
	}).Info("run finished")
}

func openDevice(cfg *config.Config) (capture.Device, error) {
	if cfg.Device == config.DevicePattern {
		return capture.NewPattern(cfg.Width, cfg.Height)
	}
	return camera.Open(cfg.CameraIndex, cfg.Width, cfg.Height, cfg.FPS)
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
