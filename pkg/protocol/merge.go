package protocol

// Patch carries the top-level fields one authoring step wants to replace.
// A nil field is left untouched by Merge.
type Patch struct {
	URI       *string           `json:"protocol,omitempty"`
	Published *bool             `json:"published,omitempty"`
	Types     *[]TypeDefinition `json:"types,omitempty"`
	Structure *[]StructureNode  `json:"structure,omitempty"`
}

// Empty reports whether the patch sets nothing.
func (p Patch) Empty() bool {
	return p.URI == nil && p.Published == nil && p.Types == nil && p.Structure == nil
}

// Fields lists the JSON names of the fields the patch sets.
func (p Patch) Fields() []string {
	var out []string
	if p.Published != nil {
		out = append(out, "published")
	}
	if p.URI != nil {
		out = append(out, "protocol")
	}
	if p.Types != nil {
		out = append(out, "types")
	}
	if p.Structure != nil {
		out = append(out, "structure")
	}
	return out
}

// SetURI returns a patch replacing only the URI.
func SetURI(uri string) Patch { return Patch{URI: &uri} }

// SetPublished returns a patch replacing only the published flag.
func SetPublished(published bool) Patch { return Patch{Published: &published} }

// SetTypes returns a patch replacing the whole type list.
func SetTypes(types []TypeDefinition) Patch { return Patch{Types: &types} }

// SetStructure returns a patch replacing the whole structure list.
func SetStructure(nodes []StructureNode) Patch { return Patch{Structure: &nodes} }

// Merge returns a new Protocol taking each top-level field from patch when
// present and from current otherwise. The merge is shallow: a patched list
// replaces the previous list wholesale, and untouched lists keep sharing
// their backing arrays with current. Nothing is validated here.
func Merge(current Protocol, patch Patch) Protocol {
	next := current
	if patch.URI != nil {
		next.URI = *patch.URI
	}
	if patch.Published != nil {
		next.Published = *patch.Published
	}
	if patch.Types != nil {
		next.Types = *patch.Types
	}
	if patch.Structure != nil {
		next.Structure = *patch.Structure
	}
	return next
}

// Personal.AI order the ending
