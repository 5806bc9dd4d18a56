package common

import "testing"

func TestEasingEndpoints(t *testing.T) {
	names := []string{
		"linear",
		"in-quad", "out-quad", "in-out-quad",
		"in-cubic", "out-cubic", "in-out-cubic",
		"in-out-sine",
	}
	for _, name := range names {
		ease, err := ParseEase(name)
		if err != nil {
			t.Fatalf("ParseEase(%q): %v", name, err)
		}
		if got := ease(0); !almostEqual(got, 0, 1e-5) {
			t.Errorf("%s(0) = %v, want 0", name, got)
		}
		if got := ease(1); !almostEqual(got, 1, 1e-5) {
			t.Errorf("%s(1) = %v, want 1", name, got)
		}
		if mid := ease(0.5); mid < 0 || mid > 1 {
			t.Errorf("%s(0.5) = %v outside [0, 1]", name, mid)
		}
	}
}

func TestParseEaseDefault(t *testing.T) {
	ease, err := ParseEase("")
	if err != nil {
		t.Fatalf("ParseEase(\"\"): %v", err)
	}
	if ease == nil {
		t.Fatal("ParseEase(\"\") returned nil ease")
	}
}

func TestParseEaseUnknown(t *testing.T) {
	if _, err := ParseEase("bounce"); err == nil {
		t.Fatal("ParseEase(\"bounce\") did not return an error")
	}
}
