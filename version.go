package ntb

// Version is the release identifier printed by --version and in the usage text.
const Version = VersionMajor + "." + VersionMinor + "." + VersionPatch + "." + VersionBuild

// Version components.
const (
	VersionMajor = "1"
	VersionMinor = "0"
	VersionPatch = "0"
	VersionBuild = "alpha.111"
)
