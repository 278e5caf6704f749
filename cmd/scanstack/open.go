package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/scanstack/internal/logger"
	"github.com/samcharles93/scanstack/internal/stack"
)

// openReader opens the acquisition named by the source flags and
// positional arguments of cmd.
func openReader(ctx context.Context, cmd *cli.Command) (*stack.Reader, error) {
	applySourceConfig(cmd, loaded)

	list, glob, err := resolveInputs(files, pattern, cmd.Args().Slice())
	if err != nil {
		return nil, err
	}
	dialects, err := loaded.dialects()
	if err != nil {
		return nil, err
	}
	if cacheMB < 0 {
		return nil, fmt.Errorf("--cache-mb must be >= 0, got %d", cacheMB)
	}

	opts := stack.Options{
		Dialects:   dialects,
		Logger:     logger.FromContext(ctx),
		Parallel:   parallel,
		CacheBytes: cacheMB << 20,
	}
	if glob != "" {
		return stack.Open(glob, opts)
	}
	return stack.OpenFiles(list, opts)
}
