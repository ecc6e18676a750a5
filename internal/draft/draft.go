// Package draft loads authoring-time descriptors from files. A draft is
// the Protocol model as a user would type it: raw comma-separated formats,
// optional fields, possibly incomplete entries. Drafts can be YAML, TOML or
// JSON with comments.
package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	perrors "github.com/turtacn/Protoscribe/pkg/errors"
	"github.com/turtacn/Protoscribe/pkg/protocol"
)

// Format identifies a draft encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	}
	return "", perrors.New(perrors.ErrCodeDraftDecode, "FormatFromPath",
		fmt.Sprintf("unsupported draft extension %q", filepath.Ext(path)), nil)
}

// ReadFile loads the draft at path.
func ReadFile(path string) (protocol.Protocol, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return protocol.Protocol{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return protocol.Protocol{}, perrors.New(perrors.ErrCodeDraftRead, "ReadFile", "cannot read "+path, err)
	}
	p, err := Decode(data, format)
	if err != nil {
		return protocol.Protocol{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Decode parses data in the given format. Unset fields take the defaults a
// new authoring session would show: published, role "anyone", and the
// create/update verbs for rules that list none.
func Decode(data []byte, format Format) (protocol.Protocol, error) {
	p := protocol.New()
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &p)
	case FormatTOML:
		_, err = toml.Decode(string(data), &p)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		err = dec.Decode(&p)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return protocol.Protocol{}, perrors.New(perrors.ErrCodeDraftDecode, "Decode", "malformed "+string(format)+" draft", err)
	}
	p.Structure = fillRuleDefaults(p.Structure)
	return p, nil
}

func fillRuleDefaults(nodes []protocol.StructureNode) []protocol.StructureNode {
	for i := range nodes {
		for j := range nodes[i].Actions {
			rule := &nodes[i].Actions[j]
			def := protocol.NewActionRule()
			if rule.Who == "" {
				rule.Who = def.Who
			}
			if rule.Can == nil {
				rule.Can = def.Can
			}
		}
		nodes[i].Children = fillRuleDefaults(nodes[i].Children)
	}
	return nodes
}

// Encode writes p in the given format, for scaffolding new drafts.
func Encode(p protocol.Protocol, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(p)
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(p, "", "  ")
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// Scaffold returns the draft a new session starts from: one empty type and
// one unnamed structure node with the default rule.
func Scaffold() protocol.Protocol {
	p := protocol.New()
	p.Types = []protocol.TypeDefinition{{}}
	p.Structure = []protocol.StructureNode{protocol.NewStructureNode("")}
	return p
}

// Personal.AI order the ending
