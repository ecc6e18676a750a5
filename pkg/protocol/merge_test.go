package protocol

import (
	"reflect"
	"testing"
)

func TestMerge_ReplacesOnlyPresentFields(t *testing.T) {
	current := New()
	current.URI = "https://old.example"
	current.Types = []TypeDefinition{{Name: "email", SchemaRef: "email", Formats: "text/plain"}}
	current.Structure = []StructureNode{NewStructureNode("email")}

	next := Merge(current, SetURI("x"))

	if next.URI != "x" {
		t.Errorf("Expected URI x, got %q", next.URI)
	}
	if !next.Published {
		t.Error("Expected published to be untouched")
	}
	if &next.Types[0] != &current.Types[0] {
		t.Error("Expected types to be the same list, not a copy")
	}
	if &next.Structure[0] != &current.Structure[0] {
		t.Error("Expected structure to be the same list, not a copy")
	}
}

func TestMerge_DoesNotMutateCurrent(t *testing.T) {
	current := New()
	current.URI = "https://old.example"
	before := current.Clone()

	_ = Merge(current, Patch{})
	_ = Merge(current, SetPublished(false))
	_ = Merge(current, SetTypes(nil))

	if !reflect.DeepEqual(current, before) {
		t.Errorf("Expected current to be unchanged, got %+v", current)
	}
}

func TestMerge_ListsReplacedWholesale(t *testing.T) {
	current := New()
	current.Types = []TypeDefinition{
		{Name: "a", SchemaRef: "a"},
		{Name: "b", SchemaRef: "b"},
	}

	next := Merge(current, SetTypes([]TypeDefinition{{Name: "c", SchemaRef: "c"}}))
	if len(next.Types) != 1 || next.Types[0].Name != "c" {
		t.Errorf("Expected types replaced by [c], got %+v", next.Types)
	}

	cleared := Merge(current, SetTypes([]TypeDefinition{}))
	if len(cleared.Types) != 0 {
		t.Errorf("Expected types cleared, got %+v", cleared.Types)
	}
}

func TestMerge_KeepsInvalidEntries(t *testing.T) {
	half := []TypeDefinition{{Name: "draft"}}
	next := Merge(New(), SetTypes(half))
	if len(next.Types) != 1 || next.Types[0].SchemaRef != "" {
		t.Errorf("Expected half-filled type to be kept, got %+v", next.Types)
	}
}

func TestPatch_Fields(t *testing.T) {
	if !(Patch{}).Empty() {
		t.Error("Expected zero patch to be empty")
	}
	p := SetURI("x")
	p.Structure = &[]StructureNode{}
	fields := p.Fields()
	if !reflect.DeepEqual(fields, []string{"protocol", "structure"}) {
		t.Errorf("Expected [protocol structure], got %v", fields)
	}
}

func TestClone_IsDeep(t *testing.T) {
	p := New()
	p.Structure = []StructureNode{NewStructureNode("thread")}
	p.Structure[0].Children = []StructureNode{NewStructureNode("message")}

	c := p.Clone()
	c.Structure[0].Actions[0].Can[0] = VerbDelete
	c.Structure[0].Children[0].Name = "reply"

	if p.Structure[0].Actions[0].Can[0] != VerbCreate {
		t.Error("Expected original verbs untouched")
	}
	if p.Structure[0].Children[0].Name != "message" {
		t.Error("Expected original children untouched")
	}
}

func TestNewActionRule_Default(t *testing.T) {
	r := NewActionRule()
	if r.Who != WhoAnyone || r.Of != "" {
		t.Errorf("Expected anyone without of, got %+v", r)
	}
	if !reflect.DeepEqual(r.Can, []Verb{VerbCreate, VerbUpdate}) {
		t.Errorf("Expected [create update], got %v", r.Can)
	}
}
