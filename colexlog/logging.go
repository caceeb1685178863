// Package colexlog configures the *zap.Logger that segment.Segment and
// secondary.Index accept optionally; iterators take no logger, and
// their warnings are logged by the Segment or Index that created them.
// Grounded on zed's service/logger (file-mode handling:
// append/truncate/rotate, with rotation backed by
// gopkg.in/natefinch/lumberjack.v2) and cli/logflags (the Config shape
// a CLI would flag-bind — kept here as a plain struct since this
// module's spec places the CLI itself out of scope).
package colexlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/colstride/colex/colexerr"
)

// FileMode selects how a log path on disk is opened.
type FileMode string

const (
	FileModeAppend   FileMode = "append"
	FileModeTruncate FileMode = "truncate"
	FileModeRotate   FileMode = "rotate"
)

// Config mirrors zed's logger.Config: enough to build a *zap.Logger
// without forcing a CLI flag dependency on callers of this library.
type Config struct {
	DevMode bool
	Level   zapcore.Level
	Path    string // "stderr" (default), "stdout", or a file path
	Mode    FileMode
}

// Nop returns a *zap.Logger that discards everything, the default for
// any component in this module that isn't given an explicit logger.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// New builds a *zap.Logger per cfg, grounded directly on
// service/logger.OpenFile's path/mode switch. The returned io.Closer
// releases whatever file handle cfg.Path opened (a no-op for
// stderr/stdout/dev-null) and flushes the logger's own buffers; its
// Close aggregates both via colexerr.CloseAll so a caller that also
// holds other resources can fold this one into a single CloseAll call
// without losing either failure.
func New(cfg Config) (*zap.Logger, io.Closer, error) {
	sink, sinkCloser, err := openSink(cfg.Path, cfg.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("colexlog: %w", err)
	}
	encCfg := zap.NewProductionEncoderConfig()
	if cfg.DevMode {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)
	core := zapcore.NewCore(enc, sink, cfg.Level)
	opts := []zap.Option{zap.AddCaller()}
	if cfg.DevMode {
		opts = append(opts, zap.Development())
	}
	log := zap.New(core, opts...)
	closer := closerFunc(func() error {
		return colexerr.CloseAll(syncCloser{log}, sinkCloser)
	})
	return log, closer, nil
}

func openSink(path string, mode FileMode) (zapcore.WriteSyncer, io.Closer, error) {
	switch path {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nopCloser{}, nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nopCloser{}, nil
	case "/dev/null":
		return zapcore.AddSync(discard{}), nopCloser{}, nil
	}
	switch mode {
	case FileModeRotate:
		l := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		return zapcore.AddSync(l), l, nil
	case FileModeTruncate:
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
		if err != nil {
			return nil, nil, err
		}
		return zapcore.AddSync(f), f, nil
	default: // FileModeAppend
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return nil, nil, err
		}
		return zapcore.AddSync(f), f, nil
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// syncCloser adapts a *zap.Logger's Sync method to io.Closer so it can
// be folded into the same colexerr.CloseAll call as the sink's Close.
type syncCloser struct{ log *zap.Logger }

func (s syncCloser) Close() error {
	if err := s.log.Sync(); err != nil && !isUnsyncableConsole(err) {
		return err
	}
	return nil
}

// isUnsyncableConsole reports whether err is the well-known fsync
// failure (EINVAL/ENOTTY) some platforms return for a console fd
// (os.Stderr/os.Stdout attached to a terminal or pipe rather than a
// regular file), per zap's documented Sync caveat for stdout/stderr.
func isUnsyncableConsole(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
