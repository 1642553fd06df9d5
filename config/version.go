package config

var (
	Version    string = "dev"
	CommitHash string = ""
)

// IsProduction release build with a known commit
func IsProduction() bool {
	return Version == "release" && CommitHash != ""
}

// IsDevelopment Whether running a development build
func IsDevelopment() bool {
	return Version == "dev"
}
