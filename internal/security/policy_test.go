package security

import "testing"

func hasViolation(vs []Violation, msg string) bool {
	for _, v := range vs {
		if v.Message == msg {
			return true
		}
	}
	return false
}

func TestCheckPasswordPolicy_Accepts(t *testing.T) {
	if vs := CheckPasswordPolicy("Password123$", ""); vs != nil {
		t.Fatalf("valid password rejected: %v", vs)
	}
}

func TestCheckPasswordPolicy_TooShort(t *testing.T) {
	vs := CheckPasswordPolicy("Short1$", "")
	if !hasViolation(vs, "must be at least 8 characters") {
		t.Errorf("7-char password should fail length check, got %v", vs)
	}
}

func TestCheckPasswordPolicy_CharacterClasses(t *testing.T) {
	cases := []struct {
		password string
		message  string
	}{
		{"lowercase1$", "must contain an uppercase letter"},
		{"UPPERCASE1$", "must contain a lowercase letter"},
		{"NoDigits!!", "must contain a digit"},
		{"NoSpecial11", "must contain a special character"},
	}
	for _, c := range cases {
		if vs := CheckPasswordPolicy(c.password, ""); !hasViolation(vs, c.message) {
			t.Errorf("CheckPasswordPolicy(%q) missing %q, got %v", c.password, c.message, vs)
		}
	}
}

func TestCheckPasswordPolicy_SameAsCurrent(t *testing.T) {
	vs := CheckPasswordPolicy("Password123$", "Password123$")
	if !hasViolation(vs, "must be different from current password") {
		t.Errorf("unchanged password should be rejected, got %v", vs)
	}
	if vs := CheckPasswordPolicy("Password123$", "OldPassword1$"); vs != nil {
		t.Errorf("different password should pass, got %v", vs)
	}
}
