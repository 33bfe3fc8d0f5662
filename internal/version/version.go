// Package version reports the build version of the dataset tools.
// Set it at build time with:
//
//	go build -ldflags "-X github.com/ramonehamilton/cr-analysis/internal/version.Version=v0.3.0" ./cmd/cr-dataset
package version

// Version defaults to "dev" for local builds.
var Version = "dev"

// GetVersion returns the current build version.
func GetVersion() string {
	return Version
}
