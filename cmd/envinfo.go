package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crossmaphq/crossmap/internal/search"
	"github.com/crossmaphq/crossmap/pkg/buildinfo"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// colorize returns colored text if colors are enabled
func colorize(text, color string, useColor bool) string {
	if !useColor {
		return text
	}
	return color + text + colorReset
}

// getColorPreference checks if colors should be used
func getColorPreference(cmd *cobra.Command) bool {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return !noColor
}

// EnvData represents the structured data for environment information.
type EnvData struct {
	System    SystemInfo        `json:"system"`
	Tools     ToolsInfo         `json:"tools"`
	Variables map[string]string `json:"variables"`
}

// SystemInfo holds system-related information.
type SystemInfo struct {
	OS           string    `json:"os"`
	Architecture string    `json:"architecture"`
	GoVersion    string    `json:"goVersion"`
	NumCPU       int       `json:"numCPU"`
	Hostname     string    `json:"hostname"`
	WorkingDir   string    `json:"workingDir"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
}

// ToolsInfo reports which search backends a scan would have available.
type ToolsInfo struct {
	Ripgrep         string `json:"ripgrep"`
	RipgrepResolved bool   `json:"ripgrepResolved"`
	Git             string `json:"git"`
	GitResolved     bool   `json:"gitResolved"`
	DefaultSearcher string `json:"defaultSearcher"`
}

// newEnvinfoCommand creates a fresh envinfo command instance.
func newEnvinfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envinfo",
		Short: "Display environment and search tool information",
		Long: `Display information about the system, the search backends a scan would
use (ripgrep or the native fallback), and the CROSSMAP_* environment
variables currently set.`,
		RunE: runEnvinfo,
	}
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func runEnvinfo(cmd *cobra.Command, _ []string) error {
	// Local --json (output format) shadows the inherited log-format flag.
	jsonFormat, _ := cmd.Flags().GetBool("json")
	useColor := getColorPreference(cmd)

	envData := collectEnvironmentData()

	out := cmd.OutOrStdout()

	if jsonFormat {
		jsonData, err := json.MarshalIndent(envData, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON output: %v", err)
		}
		fmt.Fprintln(out, string(jsonData))
		return nil
	}

	separator := colorize("==================================================", colorCyan, useColor)
	keyColor := colorCyan
	resetColor := colorReset
	if !useColor {
		keyColor = ""
		resetColor = ""
	}
	row := func(key, value string) {
		fmt.Fprintf(out, "%s%-16s%s | %s\n", keyColor, key, resetColor, value)
	}

	fmt.Fprintln(out, colorize("🖥️  System Information", colorBold+colorBlue, useColor))
	fmt.Fprintln(out, separator)
	row("OS", envData.System.OS)
	row("Architecture", envData.System.Architecture)
	row("Go Version", envData.System.GoVersion)
	row("CPU Cores", fmt.Sprintf("%d", envData.System.NumCPU))
	row("Hostname", envData.System.Hostname)
	row("Working Dir", envData.System.WorkingDir)
	row("Timestamp", envData.System.Timestamp.Format(time.RFC3339))
	row("Crossmap Version", envData.System.Version)

	fmt.Fprintln(out, "")
	fmt.Fprintln(out, colorize("🔎 Search Tools", colorBold+colorGreen, useColor))
	fmt.Fprintln(out, separator)
	row("Ripgrep", envData.Tools.Ripgrep)
	row("Git", envData.Tools.Git)
	row("Default Backend", envData.Tools.DefaultSearcher)

	fmt.Fprintln(out, "")
	fmt.Fprintln(out, colorize("🌐 Environment Variables", colorBold+colorYellow, useColor))
	fmt.Fprintln(out, separator)
	if len(envData.Variables) == 0 {
		fmt.Fprintln(out, "(none set)")
		return nil
	}
	keys := make([]string, 0, len(envData.Variables))
	for k := range envData.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row(k, envData.Variables[k])
	}

	return nil
}

// collectEnvironmentData gathers the system, tool, and variable sections.
func collectEnvironmentData() EnvData {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	workingDir, err := os.Getwd()
	if err != nil {
		workingDir = "unknown"
	}

	data := EnvData{
		System: SystemInfo{
			OS:           runtime.GOOS,
			Architecture: runtime.GOARCH,
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			Hostname:     hostname,
			WorkingDir:   workingDir,
			Timestamp:    time.Now().UTC(),
			Version:      buildinfo.BinaryVersion,
		},
		Tools:     collectToolsInfo(),
		Variables: collectCrossmapVariables(),
	}
	return data
}

func collectToolsInfo() ToolsInfo {
	tools := ToolsInfo{
		Ripgrep:         "not found (native fallback active)",
		Git:             "not found (go-git handles remotes)",
		DefaultSearcher: "native",
	}

	if rgPath, err := search.ResolveBinary("rg", search.EnvToolRG); err == nil {
		tools.Ripgrep = rgPath
		tools.RipgrepResolved = true
		tools.DefaultSearcher = "ripgrep"
	}
	if gitPath, err := exec.LookPath("git"); err == nil {
		tools.Git = gitPath
		tools.GitResolved = true
	}
	return tools
}

// collectCrossmapVariables returns the CROSSMAP_* variables plus the
// conventions crossmap honors (NO_COLOR).
func collectCrossmapVariables() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.HasPrefix(parts[0], "CROSSMAP_") || parts[0] == "NO_COLOR" {
			vars[parts[0]] = parts[1]
		}
	}
	return vars
}
