// Package plansearch provides the version information for plansearch-go.
package plansearch

// Version is the current version of plansearch-go.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
