package party

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeonmaster/internal/game/character"
)

// MarshalYAML renders the party as a mapping in member order. Text members
// become literal block scalars and sheet members become nested mappings.
func (p *Party) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, n := range p.order {
		m := p.members[n]
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n}
		var val yaml.Node
		if m.Sheet != nil {
			if err := val.Encode(m.Sheet); err != nil {
				return nil, fmt.Errorf("encoding member %q: %w", n, err)
			}
		} else {
			val = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Text, Style: yaml.LiteralStyle}
		}
		node.Content = append(node.Content, key, &val)
	}
	return node, nil
}

// UnmarshalYAML restores a party written by MarshalYAML, keeping document
// order as member order.
func (p *Party) UnmarshalYAML(node *yaml.Node) error {
	fresh := New()
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*p = *fresh
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("party: expected mapping, got node kind %d at line %d", node.Kind, node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		val := node.Content[i+1]
		m := Member{Name: name}
		switch val.Kind {
		case yaml.ScalarNode:
			m.Text = val.Value
		case yaml.MappingNode:
			var s character.Sheet
			if err := val.Decode(&s); err != nil {
				return fmt.Errorf("party: decoding member %q: %w", name, err)
			}
			m.Sheet = &s
		default:
			return fmt.Errorf("party: member %q has unsupported node kind %d", name, val.Kind)
		}
		if err := fresh.Add(m); err != nil {
			return fmt.Errorf("party: %w", err)
		}
	}
	*p = *fresh
	return nil
}
