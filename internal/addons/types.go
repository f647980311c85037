// Package addons defines the add-on record model shared by the catalog
// store, the reconciliation engine, and the API layer.
package addons

// OriginSystem is the sentinel origin carried by add-ons shipped with the
// platform itself. Add-ons with this origin are always trusted, regardless
// of the configured official repositories.
const OriginSystem = "system"

// DisabledReason describes why an installed add-on is currently disabled.
// The registry server only consumes this state; deciding it is up to the
// installing process.
type DisabledReason string

const (
	// DisabledReasonNone means the add-on is enabled.
	DisabledReasonNone DisabledReason = ""

	// DisabledReasonUser means the add-on was disabled by the user.
	DisabledReasonUser DisabledReason = "user"

	// DisabledReasonIncompatible means the add-on was disabled because it is
	// incompatible with the current platform. A same-version reinstall can
	// clear this state, so it influences update resolution.
	DisabledReasonIncompatible DisabledReason = "incompatible"
)

// Addon is a read-only snapshot of one add-on version as known to the
// catalog database. The same add-on ID may appear multiple times with
// different versions and origins. The engine never mutates records.
type Addon struct {
	// ID identifies the add-on. Not unique across versions.
	ID string `json:"id"`

	// Version is the semantic version of this record.
	Version string `json:"version"`

	// Origin is the identifier of the repository this record came from,
	// or OriginSystem for pre-installed add-ons.
	Origin string `json:"origin"`

	// Path is the resolved installation path / origin URL of the record.
	// Used for the strict official-repository check.
	Path string `json:"path,omitempty"`

	// Summary is a short human-readable description.
	Summary string `json:"summary,omitempty"`

	// DisabledReason is only meaningful on installed add-ons submitted for
	// an update check.
	DisabledReason DisabledReason `json:"disabled_reason,omitempty"`
}
