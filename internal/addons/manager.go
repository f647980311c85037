package addons

import "github.com/mediahubhq/addon-registry-server/internal/versions"

// Manager reports installation state for add-ons. It mirrors the contract
// of the add-on manager in the installing process: cheap, side-effect-free
// per-record queries.
type Manager interface {
	// IsCompatible reports whether the given catalog record can be loaded
	// on this platform. Incompatible records are excluded from every
	// reconciliation map.
	IsCompatible(addon *Addon) bool

	// IsAddonDisabledWithReason reports whether the installed add-on with
	// the given ID is currently disabled for the given reason.
	IsAddonDisabledWithReason(addonID string, reason DisabledReason) bool
}

// installedManager derives manager answers from a snapshot of installed
// add-ons, as submitted with an update-check request.
type installedManager struct {
	disabled map[string]DisabledReason
}

var _ Manager = (*installedManager)(nil)

// NewManagerFromInstalled builds a Manager backed by the given installed
// add-on list. Disabled state is looked up from the submitted records; a
// catalog record is considered compatible when its version is well-formed.
func NewManagerFromInstalled(installed []*Addon) Manager {
	disabled := make(map[string]DisabledReason, len(installed))
	for _, addon := range installed {
		if addon.DisabledReason != DisabledReasonNone {
			disabled[addon.ID] = addon.DisabledReason
		}
	}
	return &installedManager{disabled: disabled}
}

func (*installedManager) IsCompatible(addon *Addon) bool {
	// A record with an unparsable version must never enter version
	// comparison, so it is rejected here together with the platform check.
	return versions.IsValid(addon.Version)
}

func (m *installedManager) IsAddonDisabledWithReason(addonID string, reason DisabledReason) bool {
	return m.disabled[addonID] == reason && reason != DisabledReasonNone
}
