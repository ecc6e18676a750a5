package protocol

import (
	"strings"

	"github.com/turtacn/Protoscribe/pkg/consts"
)

// NestingMode selects how child structure nodes are laid out.
type NestingMode string

const (
	// NestingFlat emits every named node directly under "structure",
	// keyed by its own name. Hierarchy lives only in "of" paths.
	NestingFlat NestingMode = "flat"
	// NestingRecursive emits children inside their parent's object and
	// fills empty author/recipient "of" values with the node's path.
	// Child names starting with "$" would collide with the node's own
	// markers, so those children are omitted.
	NestingRecursive NestingMode = "recursive"
)

// ParseNestingMode maps "" and "flat" to NestingFlat and "recursive" to
// NestingRecursive. The boolean is false for anything else.
func ParseNestingMode(s string) (NestingMode, bool) {
	switch s {
	case "", string(NestingFlat):
		return NestingFlat, true
	case string(NestingRecursive):
		return NestingRecursive, true
	}
	return "", false
}

type compileConfig struct {
	nesting       NestingMode
	strictFormats bool
}

// CompileOption adjusts Compile.
type CompileOption func(*compileConfig)

// WithNesting selects the structure layout. The default is NestingFlat.
func WithNesting(mode NestingMode) CompileOption {
	return func(c *compileConfig) {
		if mode != "" {
			c.nesting = mode
		}
	}
}

// WithStrictFormats drops empty tokens from dataFormats.
func WithStrictFormats() CompileOption {
	return func(c *compileConfig) { c.strictFormats = true }
}

// Compile turns p into the canonical document. It never fails: incomplete
// types and unnamed structure nodes are left out and counted in Stats.
func Compile(p Protocol, opts ...CompileOption) *Document {
	cfg := compileConfig{nesting: NestingFlat}
	for _, o := range opts {
		o(&cfg)
	}

	doc := &Document{
		Protocol:  p.URI,
		Published: p.Published,
		Nesting:   cfg.nesting,
	}
	if doc.Protocol == "" {
		doc.Protocol = consts.DefaultURI
	}

	for _, t := range p.Types {
		if !t.Complete() {
			doc.stats.TypesOmitted++
			continue
		}
		formats := t.DataFormats()
		if cfg.strictFormats {
			formats = nonEmpty(formats)
		}
		doc.stats.TypesIncluded++
		doc.Types = upsertType(doc.Types, TypeEntry{Name: t.Name, Schema: t.SchemaRef, DataFormats: formats})
	}

	if cfg.nesting == NestingRecursive {
		doc.Structure = compileNested(p.Structure, "", &doc.stats)
	} else {
		doc.Structure = compileFlat(p.Structure, nil, &doc.stats)
	}
	return doc
}

func compileFlat(nodes []StructureNode, out []StructureEntry, stats *Stats) []StructureEntry {
	for _, n := range nodes {
		if n.Name == "" {
			stats.StructuresOmitted++
		} else {
			stats.StructuresIncluded++
			out = upsertStructure(out, StructureEntry{
				Name:    n.Name,
				Role:    n.Role,
				Actions: projectActions(n.Actions, ""),
			})
		}
		out = compileFlat(n.Children, out, stats)
	}
	return out
}

func compileNested(nodes []StructureNode, parent string, stats *Stats) []StructureEntry {
	var out []StructureEntry
	for _, n := range nodes {
		if n.Name == "" || (parent != "" && strings.HasPrefix(n.Name, "$")) {
			stats.StructuresOmitted += countNodes(n)
			continue
		}
		path := n.Name
		if parent != "" {
			path = parent + "/" + n.Name
		}
		stats.StructuresIncluded++
		out = upsertStructure(out, StructureEntry{
			Name:     n.Name,
			Role:     n.Role,
			Actions:  projectActions(n.Actions, path),
			Children: compileNested(n.Children, path, stats),
		})
	}
	return out
}

// projectActions copies rules into their emitted form. A non-empty
// defaultOf fills missing "of" values for author and recipient rules.
func projectActions(rules []ActionRule, defaultOf string) []Action {
	out := make([]Action, 0, len(rules))
	for _, r := range rules {
		a := Action{Who: r.Who, Can: append([]Verb{}, r.Can...)}
		if r.Who.Relative() {
			a.Of = r.Of
			if a.Of == "" {
				a.Of = defaultOf
			}
		}
		out = append(out, a)
	}
	return out
}

func countNodes(n StructureNode) int {
	total := 1
	for _, c := range n.Children {
		total += countNodes(c)
	}
	return total
}

func nonEmpty(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// upsertType replaces an entry with the same name in place so the key keeps
// its first position, or appends a new one.
func upsertType(entries []TypeEntry, e TypeEntry) []TypeEntry {
	for i := range entries {
		if entries[i].Name == e.Name {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

func upsertStructure(entries []StructureEntry, e StructureEntry) []StructureEntry {
	for i := range entries {
		if entries[i].Name == e.Name {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

// Personal.AI order the ending
