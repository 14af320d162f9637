package script

import (
	"fmt"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// LangText pairs one canonicalized BCP-47 tag with its localized string.
// A slice (not a map) preserves author insertion order for serialization.
type LangText struct {
	Lang string
	Text string
}

// Texts holds either a single language-agnostic string (Monolingual) or a
// set of per-language strings (Multilingual). Exactly one of Monolingual
// or Langs is populated; Langs == nil means Monolingual.
type Texts struct {
	Monolingual string
	Langs       []LangText
}

// NewMonolingual builds a Monolingual Texts value.
func NewMonolingual(s string) Texts {
	return Texts{Monolingual: s}
}

// IsMultilingual reports whether this Texts carries per-language variants.
func (t Texts) IsMultilingual() bool {
	return t.Langs != nil
}

// Get resolves the text for the given BCP-47 tag. Monolingual texts ignore
// the requested tag entirely; Multilingual texts require an exact
// (canonicalized) match or return an error.
func (t Texts) Get(lang string) (string, error) {
	if t.Langs == nil {
		return t.Monolingual, nil
	}
	canon, err := canonicalizeLang(lang)
	if err != nil {
		return "", err
	}
	for _, lt := range t.Langs {
		if lt.Lang == canon {
			return lt.Text, nil
		}
	}
	return "", fmt.Errorf("no text for language %q", lang)
}

func canonicalizeLang(tag string) (string, error) {
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid BCP-47 language tag %q: %w", tag, err)
	}
	return parsed.String(), nil
}

// UnmarshalYAML implements the scalar-vs-mapping shorthand: a bare scalar
// under message:/confirm: is Monolingual, a mapping is Multilingual.
func (t *Texts) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t.Monolingual = node.Value
		t.Langs = nil
		return nil
	case yaml.MappingNode:
		langs := make([]LangText, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			canon, err := canonicalizeLang(keyNode.Value)
			if err != nil {
				return err
			}
			var text string
			if err := valNode.Decode(&text); err != nil {
				return fmt.Errorf("text for language %q: %w", keyNode.Value, err)
			}
			langs = append(langs, LangText{Lang: canon, Text: text})
		}
		if len(langs) == 0 {
			return fmt.Errorf("multilingual text mapping must not be empty")
		}
		t.Langs = langs
		t.Monolingual = ""
		return nil
	default:
		return fmt.Errorf("texts must be a scalar or a mapping, got %v", node.Kind)
	}
}

// MarshalYAML renders Monolingual texts as a bare scalar and Multilingual
// texts as an ordered mapping, preserving the author's insertion order.
func (t Texts) MarshalYAML() (interface{}, error) {
	if t.Langs == nil {
		return t.Monolingual, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, lt := range t.Langs {
		var keyNode, valNode yaml.Node
		if err := keyNode.Encode(lt.Lang); err != nil {
			return nil, err
		}
		if err := valNode.Encode(lt.Text); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &keyNode, &valNode)
	}
	return node, nil
}

// ChoiceKey is a stable handle for one choice option: either author-supplied
// or a zero-based index rendered as a string ("0", "1", ...).
type ChoiceKey = string

// ChoiceTexts is an ordered mapping ChoiceKey -> Texts. Never empty.
type ChoiceTexts struct {
	Keys  []ChoiceKey
	Texts map[ChoiceKey]Texts
}

// Get returns the Texts for a key, if present.
func (c ChoiceTexts) Get(key ChoiceKey) (Texts, bool) {
	t, ok := c.Texts[key]
	return t, ok
}

// isSequential reports whether Keys is exactly "0","1",...,"n-1" in order,
// the shape that round-trips back to a YAML sequence.
func (c ChoiceTexts) isSequential() bool {
	for i, k := range c.Keys {
		if k != fmt.Sprintf("%d", i) {
			return false
		}
	}
	return true
}

func (c *ChoiceTexts) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		keys := make([]ChoiceKey, 0, len(node.Content))
		texts := make(map[ChoiceKey]Texts, len(node.Content))
		for i, item := range node.Content {
			var t Texts
			if err := item.Decode(&t); err != nil {
				return fmt.Errorf("choice[%d]: %w", i, err)
			}
			key := fmt.Sprintf("%d", i)
			keys = append(keys, key)
			texts[key] = t
		}
		if len(keys) == 0 {
			return fmt.Errorf("choice texts must not be empty")
		}
		c.Keys, c.Texts = keys, texts
		return nil
	case yaml.MappingNode:
		keys := make([]ChoiceKey, 0, len(node.Content)/2)
		texts := make(map[ChoiceKey]Texts, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			key := keyNode.Value
			if _, dup := texts[key]; dup {
				return fmt.Errorf("duplicate choice key %q", key)
			}
			var t Texts
			if err := valNode.Decode(&t); err != nil {
				return fmt.Errorf("choice %q: %w", key, err)
			}
			keys = append(keys, key)
			texts[key] = t
		}
		if len(keys) == 0 {
			return fmt.Errorf("choice texts must not be empty")
		}
		c.Keys, c.Texts = keys, texts
		return nil
	default:
		return fmt.Errorf("choice must be a sequence or a mapping, got %v", node.Kind)
	}
}

func (c ChoiceTexts) MarshalYAML() (interface{}, error) {
	if c.isSequential() {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, k := range c.Keys {
			var item yaml.Node
			if err := item.Encode(c.Texts[k]); err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, &item)
		}
		return seq, nil
	}
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range c.Keys {
		var keyNode, valNode yaml.Node
		if err := keyNode.Encode(k); err != nil {
			return nil, err
		}
		if err := valNode.Encode(c.Texts[k]); err != nil {
			return nil, err
		}
		mapping.Content = append(mapping.Content, &keyNode, &valNode)
	}
	return mapping, nil
}
