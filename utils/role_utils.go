package utils

import (
	"strings"

	"insights/models"
)

var ValidUserRoles = map[string]bool{
	models.RoleAdmin:           true,
	models.RoleCustomer:        true,
	models.RoleDeliveryPartner: true,
}

// ValidateAndNormalizeRole validates and normalizes a role string.
// Returns the normalized role (uppercase) and a boolean indicating if it's valid.
func ValidateAndNormalizeRole(role string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(role))
	return normalized, ValidUserRoles[normalized]
}

// IsValidRole checks if a role is valid without normalizing it
func IsValidRole(role string) bool {
	return ValidUserRoles[strings.ToUpper(role)]
}

// HasRole reports whether role matches one of allowed, ignoring case.
func HasRole(role string, allowed ...string) bool {
	for _, a := range allowed {
		if strings.EqualFold(role, a) {
			return true
		}
	}
	return false
}
