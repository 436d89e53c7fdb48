package settings

import (
	"log/slog"

	"medibook/internal/domain/appearance"
)

// InitAppearance sets the initial appearance from storage, falling back to the
// platform preference when nothing valid is stored.
func (c *Controller) InitAppearance(platformDark bool) appearance.Mode {
	stored, _, err := c.storage.Get(appearance.StorageKey)
	if err != nil {
		slog.Warn("settings_storage_error", "op", "get", "key", appearance.StorageKey, "error", err)
	}
	mode := appearance.Resolve(stored, platformDark)
	c.update(func(s *State) { s.Appearance = mode })
	return mode
}

// ToggleAppearance flips dark/light, renders it and persists it.
// It never fails; a storage error is logged and the new mode still applies.
func (c *Controller) ToggleAppearance() appearance.Mode {
	c.themeMu.Lock()
	defer c.themeMu.Unlock()

	var mode appearance.Mode
	c.update(func(s *State) {
		s.Appearance = s.Appearance.Toggle()
		mode = s.Appearance
	})
	if err := c.storage.Set(appearance.StorageKey, string(mode)); err != nil {
		slog.Warn("settings_storage_error", "op", "set", "key", appearance.StorageKey, "error", err)
	}
	return mode
}
