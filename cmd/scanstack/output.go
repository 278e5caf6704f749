package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func section(w io.Writer, title string) {
	line := strings.Repeat("-", len(title)+8)
	_, _ = fmt.Fprintf(w, "\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	_, _ = fmt.Fprintf(w, "%-20s %s\n", label+":", value)
}

func rowFloat(w io.Writer, label string, v *float64) {
	if v == nil {
		return
	}
	row(w, label, strconv.FormatFloat(*v, 'g', -1, 64))
}

func rowInt(w io.Writer, label string, v *int) {
	if v == nil {
		return
	}
	row(w, label, strconv.Itoa(*v))
}

func rowBool(w io.Writer, label string, v *bool) {
	if v == nil {
		return
	}
	row(w, label, strconv.FormatBool(*v))
}

func formatShape(shape [5]int) string {
	names := [...]string{"row", "col", "channel", "slice", "frame"}
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = fmt.Sprintf("%s=%d", names[i], n)
	}
	return strings.Join(parts, " ")
}
