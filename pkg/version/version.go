package version

// Version represents the current version of regsearch
const Version = "1.2.0"

// BuildVersion returns the version string for display
func BuildVersion() string {
	return "regsearch version " + Version
}
