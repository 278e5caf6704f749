package main

import "github.com/urfave/cli/v3"

var (
	files      []string
	pattern    string
	parallel   int
	cacheMB    int
	logLevel   string
	logFormat  string
	logFile    string
	logMaxSize int
	debug      bool
	jsonOut    bool
)

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "files",
			Aliases:     []string{"f"},
			Usage:       "acquisition files (repeatable); positional arguments are added",
			Destination: &files,
		},
		&cli.StringFlag{
			Name:        "pattern",
			Aliases:     []string{"p"},
			Usage:       "glob matching the acquisition files, e.g. 'run1_*.tif'",
			Destination: &pattern,
		},
		&cli.IntFlag{
			Name:        "parallel",
			Usage:       "files read concurrently per slice",
			Value:       4,
			Destination: &parallel,
		},
		&cli.IntFlag{
			Name:        "cache-mb",
			Usage:       "page cache size in MiB (0 disables)",
			Value:       0,
			Destination: &cacheMB,
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print JSON instead of text",
			Destination: &jsonOut,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "write logs to a rotating file instead of stderr",
			Destination: &logFile,
		},
		&cli.IntFlag{
			Name:        "log-max-size",
			Usage:       "rotate the log file after this many MiB",
			Value:       100,
			Destination: &logMaxSize,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
