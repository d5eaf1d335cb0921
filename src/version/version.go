package version

// Version is the CLI version string, overridable at build time via
// -ldflags "-X wrtcli/src/version.Version=...".
var Version = "0.3.0"
