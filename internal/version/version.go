package version

var (
	// Version is the current lumetrics release
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the build identity printed by `lumetrics version`.
func String() string {
	return "lumetrics " + Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
