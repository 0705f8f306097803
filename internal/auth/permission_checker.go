package auth

// HasPermission reports whether userPermissions satisfy required. Holding ADMIN
// always passes. With several required permissions holding any one of them is
// enough. Unknown names simply never match.
func HasPermission(userPermissions []string, required ...string) bool {
	for _, p := range userPermissions {
		if p == PermAdmin {
			return true
		}
	}
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range required {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func IsAdmin(userPermissions []string) bool {
	return HasPermission(userPermissions, PermAdmin)
}

// CanSuggest reports whether the user may propose changes for review.
func CanSuggest(userPermissions []string) bool {
	return HasPermission(userPermissions, PermSuggestEdits)
}
