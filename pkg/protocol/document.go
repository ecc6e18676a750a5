package protocol

import (
	"bytes"
	"encoding/json"
)

// Document is the compiled descriptor. Entry slices keep the emitted key
// order; MarshalJSON writes them as JSON objects in that order.
type Document struct {
	Protocol  string
	Published bool
	Types     []TypeEntry
	Structure []StructureEntry
	Nesting   NestingMode

	stats Stats
}

// TypeEntry is one member of the "types" object.
type TypeEntry struct {
	Name        string
	Schema      string
	DataFormats []string
}

// StructureEntry is one member of a "structure" object. Children are
// non-empty only for documents compiled with NestingRecursive.
type StructureEntry struct {
	Name     string
	Role     bool
	Actions  []Action
	Children []StructureEntry
}

// Action is one element of "$actions".
type Action struct {
	Who Who
	Of  string
	Can []Verb
}

// Stats counts what Compile kept and what it left out.
type Stats struct {
	TypesIncluded      int
	TypesOmitted       int
	StructuresIncluded int
	StructuresOmitted  int
}

// Stats reports how many entries were included or omitted.
func (d *Document) Stats() Stats {
	return d.stats
}

// MarshalJSON writes the document with a stable key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.object().MarshalJSON()
}

// Render returns the document as 2-space indented JSON without a trailing
// newline, matching the layout of hand-written descriptors.
func (d *Document) Render() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.object()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (d *Document) object() object {
	types := make(object, 0, len(d.Types))
	for _, t := range d.Types {
		formats := t.DataFormats
		if formats == nil {
			formats = []string{}
		}
		types = append(types, member{t.Name, object{
			{"schema", t.Schema},
			{"dataFormats", formats},
		}})
	}
	return object{
		{"protocol", d.Protocol},
		{"published", d.Published},
		{"types", types},
		{"structure", structureObject(d.Structure)},
	}
}

func structureObject(entries []StructureEntry) object {
	out := make(object, 0, len(entries))
	for _, e := range entries {
		node := object{}
		if e.Role {
			node = append(node, member{"$role", true})
		}
		actions := make([]object, 0, len(e.Actions))
		for _, a := range e.Actions {
			actions = append(actions, a.object())
		}
		node = append(node, member{"$actions", actions})
		node = append(node, structureObject(e.Children)...)
		out = append(out, member{e.Name, node})
	}
	return out
}

func (a Action) object() object {
	o := object{{"who", a.Who}}
	if a.Who.Relative() && a.Of != "" {
		o = append(o, member{"of", a.Of})
	}
	can := a.Can
	if can == nil {
		can = []Verb{}
	}
	return append(o, member{"can", can})
}

type member struct {
	key   string
	value any
}

// object is a JSON object whose members are written in slice order.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeValue(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := encodeValue(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValue marshals v without HTML escaping, so schema URLs and MIME
// parameters come out as typed.
func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Personal.AI order the ending
