// Package versions provides version comparison and build version
// information for the add-on registry server.
package versions

import "github.com/Masterminds/semver/v3"

// IsValid reports whether the given version string parses as a semantic
// version. Records carrying an unparsable version are rejected at catalog
// ingestion time so version comparison is always defined.
func IsValid(version string) bool {
	_, err := semver.NewVersion(version)
	return err == nil
}

// IsNewerVersion reports whether newVersion is strictly greater than
// oldVersion. It uses semantic versioning for comparison when both strings
// are valid semver, and falls back to lexicographic string comparison
// otherwise.
func IsNewerVersion(newVersion, oldVersion string) bool {
	newSemver, errNew := semver.NewVersion(newVersion)
	oldSemver, errOld := semver.NewVersion(oldVersion)

	if errNew != nil || errOld != nil {
		// Fallback to string comparison if semver parsing fails
		return newVersion > oldVersion
	}

	return newSemver.GreaterThan(oldSemver)
}
