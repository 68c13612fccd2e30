package security

// Violation is a field-level policy failure suitable for a 400 response body.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const minPasswordLen = 8

// CheckPasswordPolicy validates a candidate password: minimum length, and at
// least one uppercase letter, lowercase letter, digit, and special character.
// When currentPassword is non-empty the candidate must also differ from it.
// Returns nil when the password is acceptable.
func CheckPasswordPolicy(newPassword, currentPassword string) []Violation {
	var out []Violation
	if len(newPassword) < minPasswordLen {
		out = append(out, Violation{Field: "password", Message: "must be at least 8 characters"})
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range newPassword {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper {
		out = append(out, Violation{Field: "password", Message: "must contain an uppercase letter"})
	}
	if !hasLower {
		out = append(out, Violation{Field: "password", Message: "must contain a lowercase letter"})
	}
	if !hasDigit {
		out = append(out, Violation{Field: "password", Message: "must contain a digit"})
	}
	if !hasSpecial {
		out = append(out, Violation{Field: "password", Message: "must contain a special character"})
	}
	if currentPassword != "" && newPassword == currentPassword {
		out = append(out, Violation{Field: "password", Message: "must be different from current password"})
	}
	return out
}
