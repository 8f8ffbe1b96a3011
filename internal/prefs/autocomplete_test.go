package prefs

import "testing"

func TestAutocompleteCyclesAndWraps(t *testing.T) {
	ac := NewAutocompleter([]string{"bobby@localhost", "alice@localhost", "bob@localhost", "bob@localhost"})
	want := []string{"bob@localhost", "bobby@localhost", "bob@localhost"}
	input := "bo"
	for i, w := range want {
		got, ok := ac.Complete(input)
		if !ok || got != w {
			t.Fatalf("step %d: expected %q, got %q (ok=%v)", i, w, got, ok)
		}
		input = got
	}
}

func TestAutocompleteNewPrefixRestarts(t *testing.T) {
	ac := NewAutocompleter([]string{"alice@localhost", "bob@localhost"})
	if got, _ := ac.Complete("b"); got != "bob@localhost" {
		t.Fatalf("expected bob, got %q", got)
	}
	if got, _ := ac.Complete("a"); got != "alice@localhost" {
		t.Fatalf("expected alice after new prefix, got %q", got)
	}
}

func TestAutocompleteNoMatchResets(t *testing.T) {
	ac := NewAutocompleter([]string{"alice@localhost"})
	if _, ok := ac.Complete("z"); ok {
		t.Fatalf("expected no match")
	}
	if got, ok := ac.Complete(""); !ok || got != "alice@localhost" {
		t.Fatalf("expected empty prefix to match everything, got %q", got)
	}
	if _, ok := NewAutocompleter(nil).Complete("a"); ok {
		t.Fatalf("expected empty completer to report no match")
	}
	if items := ac.Items(); len(items) != 1 {
		t.Fatalf("unexpected items %v", items)
	}
}
