package errors

import (
	"fmt"
	"testing"
)

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic', got '%s'", ee.Category)
	}
}

func TestBuilderExplicitFields(t *testing.T) {
	t.Parallel()

	ee := Newf("no matching media for %s", "UF:Herp:84822").
		Category(CategoryNotFound).
		Component("morphosource").
		Context("specimen_id", "UF:Herp:84822").
		Build()

	if ee.GetComponent() != "morphosource" {
		t.Errorf("Expected component 'morphosource', got '%s'", ee.GetComponent())
	}
	if !IsNotFound(ee) {
		t.Error("Expected IsNotFound to report true")
	}
	if ctx := ee.GetContext(); ctx["specimen_id"] != "UF:Herp:84822" {
		t.Errorf("Expected specimen_id context, got %v", ctx)
	}
}

func TestCategoryDetectionFromMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		msg  string
		want ErrorCategory
	}{
		{"MorphoSource API key is required", CategoryConfiguration},
		{"missing required column catalog_number", CategoryValidation},
		{"failed to parse response json", CategoryFileParsing},
		{"connection refused", CategoryNetwork},
	}

	for _, tc := range cases {
		ee := Newf("%s", tc.msg).Build()
		if ee.Category != tc.want {
			t.Errorf("message %q: expected category %q, got %q", tc.msg, tc.want, ee.Category)
		}
	}
}

func TestIsMatchesCategory(t *testing.T) {
	t.Parallel()

	a := Newf("lookup failed").Category(CategoryNetwork).Build()
	b := Newf("different message").Category(CategoryNetwork).Build()

	if !Is(a, b) {
		t.Error("Expected errors with the same category to match via Is")
	}
}
