// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	if s.Camera.DeviceID != nil {
		id := *s.Camera.DeviceID
		out.Camera.DeviceID = &id
	}
	return out
}
