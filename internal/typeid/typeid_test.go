package typeid

import (
	"strings"
	"testing"
)

func TestNewAndValidate(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
		ok     bool
	}{
		{"composition", NewCompositionID(), PrefixComposition, true},
		{"session", NewSessionID(), PrefixSession, true},
		{"wrong prefix", NewJobID(), PrefixComposition, false},
		{"garbage", "comp_???", PrefixComposition, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id, tt.prefix)
			if (err == nil) != tt.ok {
				t.Fatalf("Validate(%q, %q) = %v, want ok=%v", tt.id, tt.prefix, err, tt.ok)
			}
		})
	}
	if id := NewCompositionID(); !strings.HasPrefix(id, "comp_") {
		t.Fatalf("id %q lacks prefix", id)
	}
}
