package internal

// set via -ldflags at release time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func FullVersion() string {
	if Version == "dev" && len(GitCommit) >= 8 && GitCommit != "unknown" {
		return "dev+" + GitCommit[:8]
	}
	return Version
}

func UserAgent() string {
	return "tinyscripts/" + FullVersion()
}
