package handlers

import (
	"strings"

	"cloudtheme/internal/i18n"
	"cloudtheme/internal/models"
	"cloudtheme/internal/theming"
)

// Validation limits for theming settings, in bytes.
const (
	maxNameLen   = 250
	maxURLLen    = 500
	maxSloganLen = 500
)

// trimSetting strips the whitespace and NUL bytes browsers and scripts
// tend to leave around submitted values.
func trimSetting(s string) string {
	return strings.Trim(s, " \t\n\r\x00\x0B")
}

// validateSetting checks a trimmed value for a settable field and returns
// the i18n key of the first problem, or "" when the value is acceptable.
func validateSetting(field, value string) string {
	switch field {
	case models.SettingName:
		if len(value) > maxNameLen {
			return i18n.MsgNameTooLong
		}
	case models.SettingURL:
		if len(value) > maxURLLen {
			return i18n.MsgURLTooLong
		}
	case models.SettingSlogan:
		if len(value) > maxSloganLen {
			return i18n.MsgSloganTooLong
		}
	case models.SettingColor:
		if !theming.ValidColor(value) {
			return i18n.MsgColorInvalid
		}
	default:
		return i18n.MsgUnknownSetting
	}
	return ""
}
