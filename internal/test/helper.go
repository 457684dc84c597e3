package test

import (
	"io"
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DummyLogger returns a debug level logger writing "LEVEL\tmessage\tfields"
// lines to w, mirrored to stderr when tests run verbosely.
func DummyLogger(w io.Writer) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeLevel: zapcore.CapitalLevelEncoder,
	})

	sink := zapcore.AddSync(w)
	if testing.Verbose() {
		sink = zap.CombineWriteSyncers(zapcore.AddSync(os.Stderr), sink)
	}

	return zap.New(zapcore.NewCore(encoder, sink, zapcore.DebugLevel))
}
