package main

import (
	"context"
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/scanstack/internal/logger"
)

var logSink io.Closer

// setupLogging loads the config file and attaches the configured logger to
// the command context.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(configPath())
	if err != nil {
		return ctx, err
	}
	loaded = cfg
	applyLoggingConfig(cmd, cfg)

	level := logLevel
	if debug {
		level = "debug"
	}
	var out io.Writer = os.Stderr
	if logFile != "" {
		lj := &lumberjack.Logger{
			Filename: expandHome(logFile),
			MaxSize:  logMaxSize, // megabytes
			MaxAge:   28,         // days
		}
		out = lj
		logSink = lj
	}

	log, err := logger.Setup(logger.Config{
		Level:   level,
		Format:  logFormat,
		Output:  out,
		NoColor: logSink != nil,
	})
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

func closeLogging(ctx context.Context, cmd *cli.Command) error {
	if logSink == nil {
		return nil
	}
	return logSink.Close()
}
