package radio

import (
	"os"
	"os/exec"
)

// lookupTool returns the path to a control utility.
// An explicitly configured path is used as-is. Otherwise the utility
// is searched in PATH, and then in each of the fallback locations.
func lookupTool(configured, name string, fallbacks ...string) string {
	if configured != "" {
		return configured
	}

	if path, err := exec.LookPath(name); err == nil {
		return path
	}

	for _, path := range fallbacks {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}

	return ""
}
