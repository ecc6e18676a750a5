package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/turtacn/Protoscribe/pkg/protocol"
)

func TestRegister_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("First Register failed: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("Second Register should be tolerated, got %v", err)
	}
}

func TestObserveCompile(t *testing.T) {
	p := protocol.New()
	p.Types = []protocol.TypeDefinition{{Name: "a"}, {Name: "b", SchemaRef: "b"}}
	p.Structure = []protocol.StructureNode{{Name: ""}}

	beforeType := testutil.ToFloat64(OmittedEntriesTotal.WithLabelValues("type"))
	beforeFlat := testutil.ToFloat64(CompilationsTotal.WithLabelValues("flat"))

	ObserveCompile(protocol.Compile(p))

	if got := testutil.ToFloat64(OmittedEntriesTotal.WithLabelValues("type")) - beforeType; got != 1 {
		t.Errorf("Expected 1 omitted type, got %v", got)
	}
	if got := testutil.ToFloat64(CompilationsTotal.WithLabelValues("flat")) - beforeFlat; got != 1 {
		t.Errorf("Expected 1 flat compilation, got %v", got)
	}
}

func TestHandler_Exposes(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatal(err)
	}
	SessionsActive.Set(3)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "protoscribe_sessions_active 3") {
		t.Errorf("Expected sessions gauge in output, got %s", rec.Body.String())
	}
}
