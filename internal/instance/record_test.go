package instance

import (
	"errors"
	"testing"
)

func TestValidateNameAccepts(t *testing.T) {
	for _, name := range []string{"default", "a", "My-Page_2", "0leading"} {
		if err := ValidateName(name); err != nil {
			t.Fatalf("expected %q valid, got %v", name, err)
		}
	}
}

func TestValidateNameRejects(t *testing.T) {
	long := "a"
	for len(long) < 66 {
		long += "a"
	}
	for _, name := range []string{"", "-leading", "_leading", "has space", "dot.ted", long} {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("expected %q invalid, got %v", name, err)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Default":      "default",
		"My-Page_2":    "my-page-2",
		"a__b--c":      "a-b-c",
		"UPPER":        "upper",
		"trailing-":    "trailing",
		"0numbers9":    "0numbers9",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBaseNameIncludesPID(t *testing.T) {
	if got := BaseName("My_Page", 4321); got != "my-page-4321" {
		t.Fatalf("unexpected base name: %q", got)
	}
}
