package registry

import (
	"testing"

	"github.com/otolab/sebas-chan-sub000/event"
	"github.com/otolab/sebas-chan-sub000/workflow"
)

func def(name string, kinds ...event.Kind) workflow.Definition {
	return workflow.Definition{
		Name:     name,
		Triggers: workflow.Triggers{EventKinds: kinds},
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := New()
	if err := r.Register(def("w1", event.KindIssueCreated)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(def("w1", event.KindIssueCreated)); err == nil {
		t.Fatal("expected DuplicateName error on second registration")
	}
}

func TestByKindReturnsRegistrationOrder(t *testing.T) {
	r := New()
	_ = r.Register(def("first", event.KindIssueCreated))
	_ = r.Register(def("second", event.KindIssueCreated))
	_ = r.Register(def("unrelated", event.KindFlowCreated))

	got := r.ByKind(event.KindIssueCreated)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].Name != "first" || got[1].Name != "second" {
		t.Fatalf("expected registration order, got %s then %s", got[0].Name, got[1].Name)
	}
}

func TestGetUnknownReturnsFalse(t *testing.T) {
	r := New()
	if _, ok := r.Get("missing"); ok {
		t.Fatal("expected ok=false for unregistered name")
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := New()
	_ = r.Register(def("a", event.KindIssueCreated))
	_ = r.Register(def("b", event.KindIssueCreated))

	list := r.List()
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" {
		t.Fatalf("unexpected list order: %#v", list)
	}
}
