// Package buildinfo carries the version metadata stamped into fluxterm
// binaries at link time.
package buildinfo

import "fmt"

// BuildInfo identifies one build of an executable artifact.
type BuildInfo struct {
	Version    string
	CommitHash string
	BuildDate  string
}

// String formats the build info for startup log lines.
func (i BuildInfo) String() string {
	return fmt.Sprintf("version %s (%s) built on %s", i.Version, i.CommitHash, i.BuildDate)
}
