package docid

import (
	"strings"
	"testing"
)

func TestFromIdentifierDeterministic(t *testing.T) {
	a := FromIdentifier("http://www.legislation.gov.uk/uksi/2013/1471")
	b := FromIdentifier("http://www.legislation.gov.uk/uksi/2013/1471")
	if a != b {
		t.Errorf("same identifier produced different keys: %q vs %q", a, b)
	}
	if len(a) != 22 {
		t.Errorf("key length = %d, want 22", len(a))
	}
}

func TestFromIdentifierCaseInsensitive(t *testing.T) {
	lower := FromIdentifier("http://example.com/doc")
	upper := FromIdentifier("HTTP://EXAMPLE.COM/DOC")
	if lower != upper {
		t.Error("identifiers differing only in case should derive the same key")
	}
}

func TestFromIdentifierEmpty(t *testing.T) {
	if got := FromIdentifier("  "); got != "" {
		t.Errorf("blank identifier should yield empty key, got %q", got)
	}
}

func TestRandomUniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key := Random()
		if len(key) != 22 {
			t.Fatalf("key length = %d, want 22", len(key))
		}
		if strings.ContainsAny(key, "+/=") {
			t.Fatalf("key %q contains non-URL-safe characters", key)
		}
		if seen[key] {
			t.Fatalf("duplicate random key %q", key)
		}
		seen[key] = true
	}
}
