package session

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/turtacn/Protoscribe/internal/monitor"
	"github.com/turtacn/Protoscribe/pkg/consts"
	perrors "github.com/turtacn/Protoscribe/pkg/errors"
	"github.com/turtacn/Protoscribe/pkg/protocol"
)

func walk(t *testing.T, s *Session) {
	t.Helper()
	steps := []struct {
		step  consts.Step
		patch protocol.Patch
	}{
		{consts.StepPublished, protocol.SetPublished(false)},
		{consts.StepURI, protocol.SetURI("https://email.example")},
		{consts.StepTypes, protocol.SetTypes([]protocol.TypeDefinition{{Name: "email", SchemaRef: "email", Formats: "text/plain"}})},
		{consts.StepStructure, protocol.SetStructure([]protocol.StructureNode{protocol.NewStructureNode("email")})},
	}
	for _, st := range steps {
		if _, err := s.Submit(st.step, st.patch); err != nil {
			t.Fatalf("Submit(%s) failed: %v", st.step, err)
		}
	}
}

func TestSession_NewDefaults(t *testing.T) {
	s := New("a")
	if s.Step() != consts.StepPublished {
		t.Errorf("Expected first step published, got %s", s.Step())
	}
	if p := s.Current(); !p.Published || p.URI != "" {
		t.Errorf("Expected empty published protocol, got %+v", p)
	}
}

func TestSession_WizardFlow(t *testing.T) {
	s := New("a")
	walk(t, s)

	if s.Step() != consts.StepComplete {
		t.Fatalf("Expected complete, got %s", s.Step())
	}
	p := s.Current()
	if p.Published || p.URI != "https://email.example" || len(p.Types) != 1 || len(p.Structure) != 1 {
		t.Errorf("Unexpected protocol %+v", p)
	}

	doc := s.Document()
	if doc.Protocol != "https://email.example" || len(doc.Types) != 1 {
		t.Errorf("Unexpected document %+v", doc)
	}

	if _, err := s.Update(protocol.SetURI("late")); !perrors.Is(err, perrors.ErrCodeSessionClosed) {
		t.Errorf("Expected closed session error, got %v", err)
	}
}

func TestSession_StepOrder(t *testing.T) {
	s := New("a")
	_, err := s.Submit(consts.StepURI, protocol.SetURI("x"))
	if !perrors.Is(err, perrors.ErrCodeStepOrder) {
		t.Errorf("Expected step order error, got %v", err)
	}
	if s.Current().URI != "" {
		t.Error("Expected rejected submit to leave the protocol untouched")
	}
}

func TestSession_PatchScope(t *testing.T) {
	s := New("a")
	wide := protocol.SetPublished(true)
	uri := "x"
	wide.URI = &uri

	if _, err := s.Submit(consts.StepPublished, wide); !perrors.Is(err, perrors.ErrCodePatchScope) {
		t.Errorf("Expected patch scope error, got %v", err)
	}
	if _, err := s.Submit(consts.StepPublished, protocol.Patch{}); !perrors.Is(err, perrors.ErrCodePatchScope) {
		t.Errorf("Expected patch scope error for empty patch, got %v", err)
	}
	if _, err := s.Submit(consts.StepPublished, protocol.SetURI("x")); !perrors.Is(err, perrors.ErrCodePatchScope) {
		t.Errorf("Expected patch scope error for foreign field, got %v", err)
	}
}

func TestSession_Back(t *testing.T) {
	s := New("a")
	if _, err := s.Back(); !perrors.Is(err, perrors.ErrCodeStepOrder) {
		t.Errorf("Expected step order error at first step, got %v", err)
	}
	s.Submit(consts.StepPublished, protocol.SetPublished(true))
	s.Submit(consts.StepURI, protocol.SetURI("x"))

	step, err := s.Back()
	if err != nil || step != consts.StepURI {
		t.Fatalf("Expected back to uri, got %s %v", step, err)
	}
	if s.Current().URI != "x" {
		t.Error("Expected Back to keep the protocol")
	}
}

func TestSession_UpdateIgnoresStep(t *testing.T) {
	s := New("a")
	types := []protocol.TypeDefinition{{Name: "draft"}}
	p, err := s.Update(protocol.SetTypes(types))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(p.Types) != 1 || s.Step() != consts.StepPublished {
		t.Errorf("Expected types set without advancing, got %+v at %s", p.Types, s.Step())
	}
	if len(s.Document().Types) != 0 {
		t.Error("Expected half-filled type to be omitted from the document")
	}
}

func TestSession_UndoRedo(t *testing.T) {
	s := New("a")
	if _, err := s.Undo(); !perrors.Is(err, perrors.ErrCodeNothingToUndo) {
		t.Errorf("Expected nothing to undo, got %v", err)
	}

	s.Update(protocol.SetURI("one"))
	s.Update(protocol.SetURI("two"))

	p, err := s.Undo()
	if err != nil || p.URI != "one" {
		t.Fatalf("Expected undo to one, got %q %v", p.URI, err)
	}
	p, err = s.Redo()
	if err != nil || p.URI != "two" {
		t.Fatalf("Expected redo to two, got %q %v", p.URI, err)
	}
	if _, err := s.Redo(); !perrors.Is(err, perrors.ErrCodeNothingToRedo) {
		t.Errorf("Expected nothing to redo, got %v", err)
	}

	s.Undo()
	s.Update(protocol.SetURI("three"))
	if _, err := s.Redo(); !perrors.Is(err, perrors.ErrCodeNothingToRedo) {
		t.Errorf("Expected new edit to drop the redo tail, got %v", err)
	}
	if s.Current().URI != "three" {
		t.Errorf("Expected three, got %q", s.Current().URI)
	}
}

func TestSession_HistoryBounded(t *testing.T) {
	s := New("a")
	for i := 0; i < maxHistory*2; i++ {
		s.Update(protocol.SetPublished(i%2 == 0))
	}
	undos := 0
	for {
		if _, err := s.Undo(); err != nil {
			break
		}
		undos++
	}
	if undos != maxHistory-1 {
		t.Errorf("Expected %d undos, got %d", maxHistory-1, undos)
	}
}

func TestSession_Abandon(t *testing.T) {
	s := New("a")
	s.Update(protocol.SetURI("kept"))
	if err := s.Abandon(); err != nil {
		t.Fatalf("Abandon failed: %v", err)
	}
	if s.Step() != consts.StepAbandoned {
		t.Errorf("Expected abandoned, got %s", s.Step())
	}
	if s.Current().URI != "kept" {
		t.Error("Expected protocol to remain readable")
	}
	if err := s.Abandon(); !perrors.Is(err, perrors.ErrCodeSessionClosed) {
		t.Errorf("Expected closed error, got %v", err)
	}
	if _, err := s.Undo(); !perrors.Is(err, perrors.ErrCodeSessionClosed) {
		t.Errorf("Expected closed error, got %v", err)
	}
}

func TestSession_IsolatedFromEachOther(t *testing.T) {
	a, b := New("a"), New("b")
	a.Update(protocol.SetURI("a-only"))
	if b.Current().URI != "" {
		t.Errorf("Expected session b untouched, got %q", b.Current().URI)
	}
}

func TestRestore(t *testing.T) {
	p := protocol.New()
	p.URI = "restored"
	s := Restore(Snapshot{ID: "r", Step: consts.StepTypes, Protocol: p})
	if s.Step() != consts.StepTypes || s.Current().URI != "restored" {
		t.Errorf("Unexpected restore %s %+v", s.Step(), s.Current())
	}
	if _, err := s.Back(); err != nil {
		t.Errorf("Expected Back from restored types step, got %v", err)
	}
}

func TestParseStep(t *testing.T) {
	if step, ok := ParseStep("structure"); !ok || step != consts.StepStructure {
		t.Errorf("Expected structure, got %s %v", step, ok)
	}
	for _, name := range []string{"nope", "complete", "abandoned"} {
		if _, ok := ParseStep(name); ok {
			t.Errorf("Expected %s to be rejected", name)
		}
	}
}

func TestSession_InPlaceEditKeepsHistory(t *testing.T) {
	s := New("edit")
	types := []protocol.TypeDefinition{{Name: "a", SchemaRef: "a"}}
	if _, err := s.Update(protocol.SetTypes(types)); err != nil {
		t.Fatal(err)
	}
	types[0].Name = "caller"

	cur := s.Current()
	if cur.Types[0].Name != "a" {
		t.Fatalf("Expected history to be detached from the patch, got %q", cur.Types[0].Name)
	}
	cur.Types[0].Name = "b"
	if _, err := s.Update(protocol.SetTypes(cur.Types)); err != nil {
		t.Fatal(err)
	}
	cur.Types[0].Name = "c"

	if got := s.Current().Types[0].Name; got != "b" {
		t.Errorf("Expected current name b, got %q", got)
	}
	p, err := s.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if p.Types[0].Name != "a" {
		t.Errorf("Expected undo to restore a, got %q", p.Types[0].Name)
	}
	p.Types[0].Name = "z"
	if again, _ := s.Redo(); again.Types[0].Name != "b" {
		t.Errorf("Expected redo to return b, got %q", again.Types[0].Name)
	}
}

func TestSession_TransitionsCounted(t *testing.T) {
	next := monitor.StepTransitionsTotal.WithLabelValues(string(consts.StepPublished), string(consts.StepURI))
	back := monitor.StepTransitionsTotal.WithLabelValues(string(consts.StepURI), string(consts.StepPublished))
	beforeNext, beforeBack := testutil.ToFloat64(next), testutil.ToFloat64(back)

	s := New("metrics")
	if _, err := s.Submit(consts.StepPublished, protocol.SetPublished(true)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Back(); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(next) - beforeNext; got != 1 {
		t.Errorf("Expected 1 published->uri transition, got %v", got)
	}
	if got := testutil.ToFloat64(back) - beforeBack; got != 1 {
		t.Errorf("Expected 1 uri->published transition, got %v", got)
	}
}

func TestRestore_ResumesFlow(t *testing.T) {
	s := Restore(Snapshot{ID: "resume", Step: consts.StepStructure, Protocol: protocol.New()})
	events := s.Events()
	if len(events) != 3 {
		t.Fatalf("Expected abandon, back and next at structure, got %v", events)
	}
	if _, err := s.Submit(consts.StepStructure, protocol.SetURI("x")); !perrors.Is(err, perrors.ErrCodePatchScope) {
		t.Errorf("Expected URI patch to be out of scope at structure, got %v", err)
	}
	if _, err := s.Submit(consts.StepStructure, protocol.SetStructure([]protocol.StructureNode{})); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if s.Step() != consts.StepComplete {
		t.Errorf("Expected complete, got %s", s.Step())
	}

	fresh := Restore(Snapshot{ID: "blank"})
	if fresh.Step() != consts.StepPublished {
		t.Errorf("Expected empty step to start at published, got %s", fresh.Step())
	}
}
