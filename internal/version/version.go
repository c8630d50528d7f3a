package version

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/devflow/internal/version.Version=v0.3.0".
var Version = "dev"

// Build metadata, also set through ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version for --version output.
func String() string {
	return Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
