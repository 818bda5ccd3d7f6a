package version

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func Full() string {
	return Version + " (" + Commit + ") " + Date
}

// UserAgent identifies masthead in outgoing CMS requests.
func UserAgent() string {
	return "masthead/" + Version
}
