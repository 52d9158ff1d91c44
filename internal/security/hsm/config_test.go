package hsm

import "testing"

func TestConfigValidate(t *testing.T) {
	if err := (Config{}).validate(); err == nil {
		t.Fatalf("expected error for empty config")
	}
	if err := (Config{LibPath: "/usr/lib/softhsm/libsofthsm2.so"}).validate(); err == nil {
		t.Fatalf("expected error for missing label")
	}
	if err := (Config{LibPath: "/usr/lib/softhsm/libsofthsm2.so", KeyLabel: "securepay"}).validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
