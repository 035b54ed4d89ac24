// Package version holds the application version, stamped into backups and
// surfaced by the health endpoint.
package version

// Version is the current application version. Overridden at build time via
// -ldflags "-X github.com/aristath/steward/internal/version.Version=...".
var Version = "1.0.0"
