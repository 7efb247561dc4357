package utils

import "testing"

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"abc", false},
		{"alllowercase1!", false},
		{"NOLOWER123!", false},
		{"NoSpecial123", false},
		{"Valid1Pass!", true},
		{"Short1!", false},
		{"Spaces Not1!", false},
	}

	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.valid && err != nil {
			t.Errorf("ValidatePassword(%q) = %v, want nil", tc.password, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("ValidatePassword(%q) = nil, want error", tc.password)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	for _, username := range []string{"abc", "user_123", "A23456789012345"} {
		if err := ValidateUsername(username); err != nil {
			t.Errorf("ValidateUsername(%q) = %v, want nil", username, err)
		}
	}
	for _, username := range []string{"", "ab", "has space", "dash-ed", "waytoolongusername"} {
		if err := ValidateUsername(username); err == nil {
			t.Errorf("ValidateUsername(%q) = nil, want error", username)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("example@domain.com"); err != nil {
		t.Errorf("expected valid email, got %v", err)
	}
	for _, email := range []string{"", "nodomain", "no@tld", "sp ace@domain.com"} {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", email)
		}
	}
}

func TestValidateFullname(t *testing.T) {
	for _, name := range []string{"Ada Lovelace", "Jean Luc Picard"} {
		if err := ValidateFullname(name); err != nil {
			t.Errorf("ValidateFullname(%q) = %v, want nil", name, err)
		}
	}
	for _, name := range []string{"", "Prince", "A B", "1234 5678"} {
		if err := ValidateFullname(name); err == nil {
			t.Errorf("ValidateFullname(%q) = nil, want error", name)
		}
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  MixedCase_1 "); got != "mixedcase_1" {
		t.Errorf("NormalizeUsername = %q, want %q", got, "mixedcase_1")
	}
}
