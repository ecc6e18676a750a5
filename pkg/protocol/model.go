// Package protocol holds the authoring-time model of a protocol descriptor
// and the compiler that turns it into the canonical JSON document.
//
// The model tolerates incomplete entries. A type without a schema or a
// structure without a name is simply left out of the compiled output, so
// callers can keep half-filled forms in a Protocol between edits.
package protocol

import (
	"encoding/json"
	"strings"
)

// Protocol is the in-progress descriptor owned by one authoring session.
type Protocol struct {
	URI       string           `json:"protocol" yaml:"protocol" toml:"protocol"`
	Published bool             `json:"published" yaml:"published" toml:"published"`
	Types     []TypeDefinition `json:"types" yaml:"types" toml:"types"`
	Structure []StructureNode  `json:"structure" yaml:"structure" toml:"structure"`
}

// New returns an empty Protocol. Descriptors are published unless the
// author says otherwise.
func New() Protocol {
	return Protocol{Published: true}
}

// TypeDefinition is one entry of the types form. Formats keeps the raw
// comma-separated input exactly as typed.
type TypeDefinition struct {
	Name      string `json:"name" yaml:"name" toml:"name"`
	SchemaRef string `json:"schema" yaml:"schema" toml:"schema"`
	Formats   string `json:"dataFormats" yaml:"dataFormats" toml:"dataFormats"`
}

// Complete reports whether the entry has both a name and a schema.
func (t TypeDefinition) Complete() bool {
	return t.Name != "" && t.SchemaRef != ""
}

// DataFormats splits the raw formats on commas and trims each token.
// Empty tokens are kept, so an empty input yields a single empty token.
func (t TypeDefinition) DataFormats() []string {
	parts := strings.Split(t.Formats, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// StructureNode is a named resource carrying action rules. Children are
// only placed inside the parent's object when compiling with
// NestingRecursive; otherwise they are emitted beside it.
type StructureNode struct {
	Name     string          `json:"name" yaml:"name" toml:"name"`
	Role     bool            `json:"role,omitempty" yaml:"role,omitempty" toml:"role,omitempty"`
	Actions  []ActionRule    `json:"actions" yaml:"actions" toml:"actions"`
	Children []StructureNode `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// NewStructureNode returns a node holding one default action rule.
func NewStructureNode(name string) StructureNode {
	return StructureNode{Name: name, Actions: []ActionRule{NewActionRule()}}
}

// ActionRule states which principal may perform which verbs. Of names the
// type path the author or recipient role is relative to.
type ActionRule struct {
	Who Who    `json:"who" yaml:"who" toml:"who"`
	Of  string `json:"of,omitempty" yaml:"of,omitempty" toml:"of,omitempty"`
	Can []Verb `json:"can" yaml:"can" toml:"can"`
}

// NewActionRule returns the rule every freshly added action starts with:
// anyone may create and update.
func NewActionRule() ActionRule {
	return ActionRule{Who: WhoAnyone, Can: []Verb{VerbCreate, VerbUpdate}}
}

// UnmarshalJSON fills an absent "who" with anyone and an absent "can" with
// the default verbs, so decoded rules always carry a valid role. An explicit
// empty "can" stays empty.
func (a *ActionRule) UnmarshalJSON(data []byte) error {
	type rule ActionRule
	var r rule
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	def := NewActionRule()
	if r.Who == "" {
		r.Who = def.Who
	}
	if r.Can == nil {
		r.Can = def.Can
	}
	*a = ActionRule(r)
	return nil
}

// Clone returns a deep copy of p.
func (p Protocol) Clone() Protocol {
	out := p
	if p.Types != nil {
		out.Types = append([]TypeDefinition(nil), p.Types...)
	}
	out.Structure = cloneNodes(p.Structure)
	return out
}

func cloneNodes(nodes []StructureNode) []StructureNode {
	if nodes == nil {
		return nil
	}
	out := make([]StructureNode, len(nodes))
	for i, n := range nodes {
		out[i] = n
		if n.Actions != nil {
			out[i].Actions = make([]ActionRule, len(n.Actions))
			for j, a := range n.Actions {
				out[i].Actions[j] = a
				if a.Can != nil {
					out[i].Actions[j].Can = append([]Verb(nil), a.Can...)
				}
			}
		}
		out[i].Children = cloneNodes(n.Children)
	}
	return out
}

// Personal.AI order the ending
