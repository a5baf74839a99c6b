package main

import (
	"fmt"
	"io"
	stdslog "log/slog"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Neumenon/flexjson/codec"
	flexlogrus "github.com/Neumenon/flexjson/log/logrus"
	flexslog "github.com/Neumenon/flexjson/log/slog"
	flexzap "github.com/Neumenon/flexjson/log/zap"
)

// newLogger builds the codec logger selected by cfg, writing to w. The
// returned func flushes buffered entries.
func newLogger(cfg LogConfig, w io.Writer) (codec.Logger, func(), error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}

	switch cfg.Backend {
	case "", "none":
		return codec.NopLogger{}, func() {}, nil

	case "zap":
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		var enc zapcore.Encoder
		if cfg.Format == "json" {
			enc = zapcore.NewJSONEncoder(encCfg)
		} else {
			enc = zapcore.NewConsoleEncoder(encCfg)
		}
		l := zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
		return flexzap.ZapLogger{L: l}, func() { _ = l.Sync() }, nil

	case "logrus":
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(lvl)
		if cfg.Format == "json" {
			l.SetFormatter(&logrus.JSONFormatter{})
		} else {
			l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
		}
		return flexlogrus.LogrusLogger{E: logrus.NewEntry(l)}, func() {}, nil

	case "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		opts := &stdslog.HandlerOptions{Level: lvl}
		var h stdslog.Handler
		if cfg.Format == "json" {
			h = stdslog.NewJSONHandler(w, opts)
		} else {
			h = stdslog.NewTextHandler(w, opts)
		}
		return flexslog.Logger{L: stdslog.New(h)}, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
}
