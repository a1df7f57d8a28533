package license

import (
	"strings"
	"testing"
)

func TestIsValidKeyFormat(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"EIMS-AB12-CD34-EF56", true},
		{"EIMS-0000-0000-0000", true},
		{"EIMS-ZZZZ-9999-AAAA", true},
		{"EIMS-AB12-CD34", false},           // too short
		{"EIMS-AB12-CD34-EF56-GH78", false}, // too long
		{"eims-ab12-cd34-ef56", false},      // lowercase
		{"GWCH-AB12-CD34-EF56", false},      // wrong prefix
		{"EIMSAB12CD34EF56", false},         // missing hyphens
		{"EIMS-AB-12CD34-EF56", false},      // wrong grouping
		{"EIMS-AB!2-CD34-EF56", false},      // disallowed character
		{"", false},
		{" EIMS-AB12-CD34-EF56", false}, // leading whitespace
	}

	for _, tt := range tests {
		if got := IsValidKeyFormat(tt.key); got != tt.valid {
			t.Errorf("IsValidKeyFormat(%q) = %v, want %v", tt.key, got, tt.valid)
		}
	}
}

func TestFormatKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"eims-ab12-cd34-ef56", "EIMS-AB12-CD34-EF56"},
		{"EIMSAB12CD34EF56", "EIMS-AB12-CD34-EF56"},
		{"eims ab12 cd34 ef56", "EIMS-AB12-CD34-EF56"},
		{"EIMS_AB12.CD34/EF56", "EIMS-AB12-CD34-EF56"},
		{"eimsab12cd34ef56xxxx", "EIMS-AB12-CD34-EF56"}, // overlong input truncated
		{"ab12cd34", "AB12-CD34"},                       // no prefix: group from start
		{"eims", "EIMS"},
		{"ei", "EI"},
		{"", ""},
		{"----", ""},
		{"eimsa", "EIMS-A"}, // partial first group after prefix
	}

	for _, tt := range tests {
		if got := FormatKey(tt.in); got != tt.want {
			t.Errorf("FormatKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatKeyIdempotent(t *testing.T) {
	inputs := []string{
		"eims-ab12-cd34-ef56",
		"EIMS-AB12-CD34-EF56",
		"ab12cd34ef56",
		"eimsab12cd34ef56xxxx",
		"x",
		"",
		"!!!!",
		"eims1",
	}

	for _, in := range inputs {
		once := FormatKey(in)
		twice := FormatKey(once)
		if once != twice {
			t.Errorf("FormatKey not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestGenerateKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := GenerateKey()
		if err != nil {
			t.Fatalf("generate key: %v", err)
		}
		if !IsValidKeyFormat(key) {
			t.Fatalf("generated key %q fails format validation", key)
		}
		if len(key) != KeyLength {
			t.Fatalf("generated key %q has length %d, want %d", key, len(key), KeyLength)
		}
		if !strings.HasPrefix(key, KeyPrefix+"-") {
			t.Fatalf("generated key %q missing prefix", key)
		}
		if seen[key] {
			t.Fatalf("duplicate key generated: %q", key)
		}
		seen[key] = true
	}
}
