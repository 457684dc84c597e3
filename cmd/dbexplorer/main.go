package main

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/app-sre/explorer/pkg/cmd"
)

func main() {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	config := zap.NewDevelopmentConfig()
	config.Level = level
	config.DisableStacktrace = true

	l, err := config.Build()
	if err != nil {
		log.Fatalf("Unable to initialize Zap logger: %s", err)
	}
	defer func() { _ = l.Sync() }()

	logger := l.Sugar()
	if err := cmd.NewDatabaseCommand(logger, level).Execute(); err != nil {
		logger.Fatalf("Unable to run dbexplorer: %s", err)
	}
}
