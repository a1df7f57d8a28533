package device

import (
	"regexp"
	"testing"
)

func TestFingerprintFormat(t *testing.T) {
	fp := Fingerprint()
	if !regexp.MustCompile(`^[A-F0-9]{16}$`).MatchString(fp) {
		t.Errorf("fingerprint %q is not 16 uppercase hex chars", fp)
	}
}

func TestFingerprintStable(t *testing.T) {
	if Fingerprint() != Fingerprint() {
		t.Error("fingerprint changed between calls")
	}
	if compute() != compute() {
		t.Error("computation is not deterministic")
	}
}

func TestDescribe(t *testing.T) {
	if Describe() == "" {
		t.Error("expected non-empty description")
	}
}
