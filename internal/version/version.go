package version

import "runtime"

// Name identifies the server to MCP clients and in the Azure user agent
const Name = "azure-resource-mcp"

// Build information. Populated at build-time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// UserAgent returns the application ID sent with every Azure request
func UserAgent() string {
	return Name + "/" + Version
}

// Info returns version information
func Info() map[string]string {
	return map[string]string{
		"name":       Name,
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}
