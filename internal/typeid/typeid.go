package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixComposition = "comp"
	PrefixSession     = "sess"
	PrefixJob         = "job"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewCompositionID() string { return New(PrefixComposition) }
func NewSessionID() string     { return New(PrefixSession) }
func NewJobID() string         { return New(PrefixJob) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
