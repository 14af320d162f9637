package script

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse deserializes source into a Dialogue, assigns stable ids to any
// unlabeled lines, and runs Validate, returning a *ValidationError if any
// error-severity Diagnostic was found. The returned Dialogue is nil only
// when parsing itself (YAML structure, discriminators, main-node
// presence) failed.
func Parse(source []byte) (*Dialogue, error) {
	dec := yaml.NewDecoder(bytes.NewReader(source))
	dec.KnownFields(true)

	var d Dialogue
	if err := dec.Decode(&d); err != nil {
		return nil, &ParseError{Err: err}
	}

	assignLineIDs(&d)

	if err := ValidateOrError(&d); err != nil {
		return &d, err
	}
	return &d, nil
}

// Serialize renders a Dialogue back to canonical YAML per the round-trip
// contract: default-valued actor.num/owner are elided, Monolingual texts
// collapse to scalars, and sequential ChoiceTexts collapse to sequences.
func Serialize(d *Dialogue) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("serialize dialogue: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("serialize dialogue: %w", err)
	}
	return buf.Bytes(), nil
}
