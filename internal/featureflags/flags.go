// Package featureflags reads boolean toggles from the environment. Flags
// gate behavior that operators flip without a redeploy.
package featureflags

import (
	"os"
	"strings"
)

// Flags the server consults.
const (
	// ClosedRegistration turns POST /auth/register off; accounts are then
	// provisioned out of band.
	ClosedRegistration = "closed_registration"
)

// Enabled reports whether a flag is set via FLAG_<NAME>=true/1/yes/on
// (case-insensitive). Unset means off.
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
