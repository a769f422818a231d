// Package version reports build metadata for the payalias binaries
package version

// BuildInfo is the payload of GET /api/v1/meta/version and `payalias version`
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information for service
// version, commit and date are stamped at link time:
//
//	-ldflags "-X payalias/internal/core/version.version=v0.1.0 -X payalias/internal/core/version.commit=abcd"
func Info(service string) BuildInfo {
	if service == "" {
		service = "payalias"
	}
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}
