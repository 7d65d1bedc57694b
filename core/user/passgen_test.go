package user

import (
	"strings"
	"testing"
	"unicode"
)

func TestGeneratePassword(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantLen int
	}{
		{"default", 16, 16},
		{"longer", 24, 24},
		{"below minimum gets bumped", 8, MinGeneratedPasswordLen},
		{"zero gets bumped", 0, MinGeneratedPasswordLen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd, err := GeneratePassword(tt.length)
			if err != nil {
				t.Fatalf("GeneratePassword() error = %v", err)
			}
			if len(pwd) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(pwd), tt.wantLen)
			}

			var hasUpper, hasLower, hasDigit, hasSymbol bool
			for _, char := range pwd {
				switch {
				case unicode.IsUpper(char):
					hasUpper = true
				case unicode.IsLower(char):
					hasLower = true
				case unicode.IsDigit(char):
					hasDigit = true
				default:
					hasSymbol = true
				}
			}
			if !(hasUpper && hasLower && hasDigit && hasSymbol) {
				t.Errorf("composition not satisfied: upper=%v lower=%v digit=%v symbol=%v (%q)",
					hasUpper, hasLower, hasDigit, hasSymbol, pwd)
			}
		})
	}
}

func TestGeneratePassword_noAmbiguousChars(t *testing.T) {
	for i := 0; i < 20; i++ {
		pwd, err := GeneratePassword(MinGeneratedPasswordLen)
		if err != nil {
			t.Fatalf("GeneratePassword() error = %v", err)
		}
		if strings.ContainsAny(pwd, "0O1lI") {
			t.Errorf("password contains ambiguous characters: %q", pwd)
		}
	}
}

func TestGeneratePassword_unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pwd, err := GeneratePassword(MinGeneratedPasswordLen)
		if err != nil {
			t.Fatalf("GeneratePassword() error = %v", err)
		}
		if seen[pwd] {
			t.Fatalf("duplicate password generated: %q", pwd)
		}
		seen[pwd] = true
	}
}
