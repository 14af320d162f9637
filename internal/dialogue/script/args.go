package script

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ArgType is one of the four primitive types a dialogue argument may declare.
type ArgType string

const (
	ArgString  ArgType = "string"
	ArgInteger ArgType = "integer"
	ArgNumber  ArgType = "number"
	ArgBoolean ArgType = "boolean"
)

func parseArgType(s string) (ArgType, error) {
	switch ArgType(s) {
	case ArgString, ArgInteger, ArgNumber, ArgBoolean:
		return ArgType(s), nil
	default:
		return "", fmt.Errorf("unknown arg type %q", s)
	}
}

// ArgDecl is one declared dialogue argument: its primitive type and whether
// the EE may assign to it at runtime (eval: x = ...).
type ArgDecl struct {
	Type    ArgType
	Mutable bool
}

// UnmarshalYAML accepts the "<type>" / "mut <type>" shorthand string.
func (a *ArgDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("arg declaration must be a string, got %v", node.Kind)
	}
	raw := strings.TrimSpace(node.Value)
	mutable := false
	if rest, ok := strings.CutPrefix(raw, "mut "); ok {
		mutable = true
		raw = strings.TrimSpace(rest)
	}
	t, err := parseArgType(raw)
	if err != nil {
		return err
	}
	a.Type, a.Mutable = t, mutable
	return nil
}

func (a ArgDecl) MarshalYAML() (interface{}, error) {
	if a.Mutable {
		return "mut " + string(a.Type), nil
	}
	return string(a.Type), nil
}

// Args is an ordered mapping from argument name to its declaration.
type Args struct {
	Keys  []string
	Decls map[string]ArgDecl
}

func (a Args) Empty() bool { return len(a.Keys) == 0 }

func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("args must be a mapping, got %v", node.Kind)
	}
	keys := make([]string, 0, len(node.Content)/2)
	decls := make(map[string]ArgDecl, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		name := keyNode.Value
		if _, dup := decls[name]; dup {
			return fmt.Errorf("duplicate arg name %q", name)
		}
		var decl ArgDecl
		if err := valNode.Decode(&decl); err != nil {
			return fmt.Errorf("arg %q: %w", name, err)
		}
		keys = append(keys, name)
		decls[name] = decl
	}
	a.Keys, a.Decls = keys, decls
	return nil
}

func (a Args) MarshalYAML() (interface{}, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range a.Keys {
		var keyNode, valNode yaml.Node
		if err := keyNode.Encode(k); err != nil {
			return nil, err
		}
		if err := valNode.Encode(a.Decls[k]); err != nil {
			return nil, err
		}
		mapping.Content = append(mapping.Content, &keyNode, &valNode)
	}
	return mapping, nil
}

// JSONSchema derives the JSON Schema object that a runtime argument payload
// must satisfy, for compilation via jsonschema/v5 in RuntimeConfigError
// validation (see runner.Instantiate).
func (a Args) JSONSchema() map[string]any {
	props := make(map[string]any, len(a.Keys))
	required := make([]string, 0, len(a.Keys))
	for _, name := range a.Keys {
		decl := a.Decls[name]
		var jsonType string
		switch decl.Type {
		case ArgString:
			jsonType = "string"
		case ArgInteger:
			jsonType = "integer"
		case ArgNumber:
			jsonType = "number"
		case ArgBoolean:
			jsonType = "boolean"
		}
		props[name] = map[string]any{"type": jsonType}
		required = append(required, name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}
