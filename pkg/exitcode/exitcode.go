// Package exitcode provides standardized exit codes for crossmap
package exitcode

// Exit codes for the crossmap CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	FileSystemError = 3
	SearchError     = 4
	TimeoutError    = 5
	ToolNotFound    = 6
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case FileSystemError:
		return "File system error"
	case SearchError:
		return "Search error"
	case TimeoutError:
		return "Timeout error"
	case ToolNotFound:
		return "Tool not found"
	default:
		return "Unknown error"
	}
}
