// Package version holds build information stamped in by the linker:
//
//	go build -ldflags "-X github.com/dkoosis/scriptdeck/internal/version.Version=v1.2.0"
package version

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)
