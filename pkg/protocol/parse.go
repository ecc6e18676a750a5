package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"

	perrors "github.com/turtacn/Protoscribe/pkg/errors"
)

// ParseDocument reads a canonical descriptor back into authoring form.
// Comments and trailing commas are tolerated. Key order is preserved, data
// formats are joined with ", " and objects nested under a structure node
// (keys not starting with "$") become its Children.
func ParseDocument(data []byte) (Protocol, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	p := New()

	err := readObject(dec, func(key string) error {
		switch key {
		case "protocol":
			return dec.Decode(&p.URI)
		case "published":
			return dec.Decode(&p.Published)
		case "types":
			return readObject(dec, func(name string) error {
				var t struct {
					Schema      string   `json:"schema"`
					DataFormats []string `json:"dataFormats"`
				}
				if err := dec.Decode(&t); err != nil {
					return fmt.Errorf("type %q: %w", name, err)
				}
				p.Types = append(p.Types, TypeDefinition{
					Name:      name,
					SchemaRef: t.Schema,
					Formats:   strings.Join(t.DataFormats, ", "),
				})
				return nil
			})
		case "structure":
			nodes, err := readNodes(dec)
			p.Structure = nodes
			return err
		default:
			return skipValue(dec)
		}
	})
	if err != nil {
		return Protocol{}, perrors.New(perrors.ErrCodeDocumentDecode, "ParseDocument", "malformed descriptor", err)
	}
	return p, nil
}

func readNodes(dec *json.Decoder) ([]StructureNode, error) {
	var nodes []StructureNode
	err := readObject(dec, func(name string) error {
		node, err := readNode(dec, name)
		if err != nil {
			return err
		}
		nodes = append(nodes, node)
		return nil
	})
	return nodes, err
}

func readNode(dec *json.Decoder, name string) (StructureNode, error) {
	node := StructureNode{Name: name}
	err := readObject(dec, func(key string) error {
		switch {
		case key == "$actions":
			if err := dec.Decode(&node.Actions); err != nil {
				return fmt.Errorf("structure %q: %w", name, err)
			}
			return nil
		case key == "$role":
			return dec.Decode(&node.Role)
		case strings.HasPrefix(key, "$"):
			return skipValue(dec)
		}
		child, err := readNode(dec, key)
		if err != nil {
			return err
		}
		node.Children = append(node.Children, child)
		return nil
	})
	return node, err
}

// readObject consumes one JSON object, calling fn with the decoder
// positioned at each member's value.
func readObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}

// Personal.AI order the ending
