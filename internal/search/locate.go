package search

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/crossmaphq/crossmap/pkg/logger"
)

// EnvToolRG overrides where the rg binary is looked up.
const EnvToolRG = "CROSSMAP_TOOL_RG"

// ResolveBinary locates an external tool. A non-empty env override must
// point at an existing file to be honored; otherwise PATH decides.
func ResolveBinary(name, envOverride string) (string, error) {
	if envOverride != "" {
		if p := os.Getenv(envOverride); p != "" {
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p, nil
			}
			logger.Warn("tool override is not a usable binary, falling back to PATH",
				logger.String("var", envOverride), logger.String("path", p))
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", name, err)
	}
	return path, nil
}
