package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/scanstack/pkg/scanimage"
)

func headerCmd() *cli.Command {
	var prefix string

	return &cli.Command{
		Name:      "header",
		Usage:     "Print the parsed acquisition header",
		ArgsUsage: "[files...]",
		Flags: append(append(sourceFlags(), outputFlags()...),
			&cli.StringFlag{
				Name:        "prefix",
				Usage:       "only print keys starting with this prefix",
				Destination: &prefix,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, err := openReader(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			h := r.Header()
			if jsonOut {
				fields := make(map[string]any)
				for _, k := range h.Keys() {
					if strings.HasPrefix(k, prefix) {
						fields[k] = h.Fields[k].Interface()
					}
				}
				return printJSON(os.Stdout, map[string]any{
					"dialect": h.Dialect.Label,
					"fields":  fields,
				})
			}
			writeHeader(os.Stdout, h, prefix)
			return nil
		},
	}
}

func writeHeader(w io.Writer, h *scanimage.Header, prefix string) {
	_, _ = fmt.Fprintf(w, "# dialect %s (%s)\n", h.Dialect.Label, h.Dialect.Version)
	for _, k := range h.Keys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s = %s\n", k, h.Fields[k])
	}
}
