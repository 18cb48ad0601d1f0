// Package version exposes build information stamped in via ldflags.
package version

// set with -ldflags "-X github.com/asset-sharing-networks/ledgergate/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}
