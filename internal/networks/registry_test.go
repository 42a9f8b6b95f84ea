package networks

import (
	"net/http"
	"sort"
	"testing"
)

func TestNew(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			n, err := New(name)
			if err != nil {
				t.Fatalf("New(%q) failed: %v", name, err)
			}
			if n == nil {
				t.Fatalf("New(%q) returned nil adapter", name)
			}
		})
	}
}

func TestNewWithClient(t *testing.T) {
	c := &http.Client{}
	for _, name := range Names() {
		if _, err := NewWithClient(name, c); err != nil {
			t.Errorf("NewWithClient(%q) failed: %v", name, err)
		}
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New("no-such-network"); err == nil {
		t.Error("New with unknown name returned nil error")
	}
}

func TestNames_Sorted(t *testing.T) {
	names := Names()
	if len(names) < 2 {
		t.Fatalf("expected at least 2 registered networks, got %v", names)
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("Names() = %v, want sorted", names)
	}
}
