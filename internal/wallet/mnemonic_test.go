package wallet

import (
	"strings"
	"testing"
)

func TestGenerateMnemonic(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	if words := strings.Fields(mnemonic); len(words) != 24 {
		t.Errorf("word count = %d, want 24", len(words))
	}
	if !ValidateMnemonic(mnemonic) {
		t.Error("generated mnemonic should validate")
	}
}

func TestNormalizeMnemonic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  one  two ", "one two"},
		{"One\nTWO\tthree", "one two three"},
	}
	for _, tt := range tests {
		if got := NormalizeMnemonic(tt.in); got != tt.want {
			t.Errorf("NormalizeMnemonic(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		valid    bool
	}{
		{"valid 12-word", testMnemonic, true},
		{"valid with extra whitespace", "  " + strings.ReplaceAll(testMnemonic, " ", "\n") + " ", true},
		{"upper case", strings.ToUpper(testMnemonic), true},
		{"empty string", "", false},
		{"random words", "not a valid mnemonic phrase at all", false},
		{"wrong checksum", strings.Repeat("abandon ", 11) + "abandon", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateMnemonic(tt.mnemonic); got != tt.valid {
				t.Errorf("ValidateMnemonic() = %v, want %v", got, tt.valid)
			}
		})
	}
}
