package config

import "fmt"

// Set via ldflags at build time.
var (
	ModuleName = "github/chapool/erc20-sender"
	Commit     = "< 40 chars git commit hash via ldflags >"
	BuildDate  = "1970-01-01T00:00:00+00:00"
)

// GetFormattedBuildArgs returns module, commit and build date on one line.
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
