package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const envScanstackConfig = "SCANSTACK_CONFIG"

func configPath() string {
	if p := strings.TrimSpace(os.Getenv(envScanstackConfig)); p != "" {
		return expandHome(p)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "scanstack", "config.yaml")
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// resolveInputs merges --files with positional arguments. A glob pattern
// and an explicit list are mutually exclusive.
func resolveInputs(fileFlags []string, patternFlag string, args []string) ([]string, string, error) {
	var list []string
	for _, f := range append(append([]string(nil), fileFlags...), args...) {
		if f = strings.TrimSpace(f); f != "" {
			list = append(list, expandHome(f))
		}
	}
	patternFlag = strings.TrimSpace(patternFlag)
	switch {
	case len(list) > 0 && patternFlag != "":
		return nil, "", errors.New("use either --files or --pattern, not both")
	case len(list) > 0:
		return list, "", nil
	case patternFlag != "":
		return nil, expandHome(patternFlag), nil
	}
	return nil, "", errors.New("no input: pass files, --files or --pattern")
}
