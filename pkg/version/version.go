package version

// Set with -ldflags "-X github.com/app-sre/explorer/pkg/version.version=..." at build time.
var (
	version = "dev"
	commit  = "none"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}
