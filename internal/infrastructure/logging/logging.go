// Package logging builds the zap logger every service writes through.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation policy for the optional log file.
const (
	maxFileMB   = 5
	maxBackups  = 2
	maxFileDays = 28
)

type Options struct {
	Debug bool
	// File, when set, receives a copy of every entry with size-based rotation.
	File    string
	Service string
}

// New returns a logger at DEBUG when opts.Debug is set, WARN otherwise.
// Debug output is human readable; production output is JSON.
func New(opts Options) *zap.Logger {
	return newLogger(opts, os.Stdout)
}

func newLogger(opts Options, stdout io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)
	if opts.Debug {
		level = zapcore.DebugLevel
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(devCfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(stdout), level)}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxFileMB,
			MaxBackups: maxBackups,
			MaxAge:     maxFileDays,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotator), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if opts.Service != "" {
		logger = logger.With(zap.String("service", opts.Service))
	}
	return logger
}
