package script

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// NodeKey names one node within a Dialogue. "main" is always the entry.
type NodeKey = string

const MainNode NodeKey = "main"

// Node is an ordered sequence of Line.
type Node []Line

// Nodes preserves author insertion order for round-trip serialization,
// mirroring the ordered-mapping discipline used throughout this package.
type Nodes struct {
	Keys  []NodeKey
	Items map[NodeKey]Node
}

func (n Nodes) Get(key NodeKey) (Node, bool) {
	node, ok := n.Items[key]
	return node, ok
}

func (n *Nodes) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("nodes must be a mapping, got %v", node.Kind)
	}
	keys := make([]NodeKey, 0, len(node.Content)/2)
	items := make(map[NodeKey]Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		key := keyNode.Value
		if _, dup := items[key]; dup {
			return fmt.Errorf("duplicate node key %q", key)
		}
		if valNode.Kind != yaml.SequenceNode {
			return fmt.Errorf("node %q must be a sequence of lines, got %v", key, valNode.Kind)
		}
		lines := make(Node, len(valNode.Content))
		for i, item := range valNode.Content {
			if err := item.Decode(&lines[i]); err != nil {
				return fmt.Errorf("node %q, line %d: %w", key, i, err)
			}
		}
		keys = append(keys, key)
		items[key] = lines
	}
	if _, ok := items[MainNode]; !ok {
		return fmt.Errorf("nodes must contain a %q entry", MainNode)
	}
	n.Keys, n.Items = keys, items
	return nil
}

func (n Nodes) MarshalYAML() (interface{}, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range n.Keys {
		var keyNode yaml.Node
		if err := keyNode.Encode(k); err != nil {
			return nil, err
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, line := range n.Items[k] {
			item, err := encodeLine(line)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, item)
		}
		mapping.Content = append(mapping.Content, &keyNode, seq)
	}
	return mapping, nil
}

// Actor declares how many distinct speakers this dialogue recognizes.
// Num == 0 forbids any Message/Choice-message/Confirm line from existing.
type Actor struct {
	Num uint8
}

const defaultActorNum = 1

func (a *Actor) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Num *uint8 `yaml:"num"`
	}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("actor: %w", err)
	}
	if raw.Num == nil {
		a.Num = defaultActorNum
		return nil
	}
	a.Num = *raw.Num
	return nil
}

func (a Actor) MarshalYAML() (interface{}, error) {
	if a.Num == defaultActorNum {
		return map[string]any{}, nil
	}
	return map[string]any{"num": a.Num}, nil
}

// Dialogue is the root, immutable after a successful Parse.
type Dialogue struct {
	Name  *string `yaml:"name,omitempty"`
	Actor Actor   `yaml:"actor"`
	Args  Args    `yaml:"args,omitempty"`
	Nodes Nodes   `yaml:"nodes"`
}

// UnmarshalYAML enforces deny-unknown-fields at the document level and
// defaults Actor/Args when their keys are absent entirely.
func (d *Dialogue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("dialogue must be a mapping, got %v", node.Kind)
	}
	d.Actor = Actor{Num: defaultActorNum}
	d.Args = Args{}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		switch keyNode.Value {
		case "name":
			var s string
			if err := valNode.Decode(&s); err != nil {
				return fmt.Errorf("name: %w", err)
			}
			d.Name = &s
		case "actor":
			if err := valNode.Decode(&d.Actor); err != nil {
				return err
			}
		case "args":
			if err := valNode.Decode(&d.Args); err != nil {
				return fmt.Errorf("args: %w", err)
			}
		case "nodes":
			if err := valNode.Decode(&d.Nodes); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected key: %s", keyNode.Value)
		}
	}
	if d.Nodes.Items == nil {
		return fmt.Errorf("nodes must contain a %q entry", MainNode)
	}
	return nil
}

func (d Dialogue) MarshalYAML() (interface{}, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, v interface{}) error {
		var keyNode, valNode yaml.Node
		if err := keyNode.Encode(key); err != nil {
			return err
		}
		if err := valNode.Encode(v); err != nil {
			return err
		}
		mapping.Content = append(mapping.Content, &keyNode, &valNode)
		return nil
	}
	if d.Name != nil {
		if err := add("name", *d.Name); err != nil {
			return nil, err
		}
	}
	if d.Actor.Num != defaultActorNum {
		if err := add("actor", d.Actor); err != nil {
			return nil, err
		}
	}
	if !d.Args.Empty() {
		if err := add("args", d.Args); err != nil {
			return nil, err
		}
	}
	if err := add("nodes", d.Nodes); err != nil {
		return nil, err
	}
	return mapping, nil
}
