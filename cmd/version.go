package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/crossmaphq/crossmap/pkg/buildinfo"
)

// newVersionCommand creates a fresh version command instance.
func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show crossmap version information",
		Long: `Show the crossmap version. The version is stamped at build time via
ldflags; module builds fall back to the Go toolchain's embedded metadata.`,
		RunE: runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show detailed build and git information")
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	out := cmd.OutOrStdout()

	version := buildinfo.BinaryVersion
	source := "ldflags"
	if version == "dev" {
		if mv := buildinfo.ModuleVersion(); mv != "" && mv != "(devel)" {
			version = mv
			source = "module"
		}
	}

	commit := buildinfo.Commit()

	if jsonOutput {
		versionInfo := map[string]interface{}{
			"version":   version,
			"source":    source,
			"goVersion": runtime.Version(),
			"platform":  runtime.GOOS,
			"arch":      runtime.GOARCH,
		}
		if extended {
			versionInfo["gitCommit"] = shortCommit(commit)
			versionInfo["buildDate"] = orUnknown(buildinfo.BuildDate)
		}
		jsonData, err := json.MarshalIndent(versionInfo, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		fmt.Fprintln(out, string(jsonData))
		return nil
	}

	if extended {
		fmt.Fprintf(out, "crossmap %s\n", version)
		fmt.Fprintf(out, "Git commit: %s\n", shortCommit(commit))
		fmt.Fprintf(out, "Build date: %s\n", orUnknown(buildinfo.BuildDate))
		fmt.Fprintf(out, "Source: %s\n", source)
		fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	} else {
		fmt.Fprintf(out, "crossmap %s\n", version)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	}

	return nil
}

func shortCommit(commit string) string {
	if commit == "" {
		return "unknown"
	}
	if len(commit) >= 8 {
		return commit[:8]
	}
	return commit
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
