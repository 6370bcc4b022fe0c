// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// AppSettings is a convenience map for accessing one app's values by key.
type AppSettings map[string]string

// Get returns the value for a key, or the fallback if the key doesn't exist.
// Unlike a plain lookup, a stored empty string is returned as-is: an
// override to "" is still an override.
func (s AppSettings) Get(key, fallback string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return fallback
}

// Has reports whether an override is stored for key.
func (s AppSettings) Has(key string) bool {
	_, ok := s[key]
	return ok
}
