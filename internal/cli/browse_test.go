package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/tailwater/pkg/network"
	"github.com/matzehuels/tailwater/pkg/topology"
)

func browseFixture(t *testing.T) *topology.Decomposition {
	t.Helper()
	table, err := network.NewTable(
		[]network.SegmentID{1, 2, 3, 4, 5},
		[]network.SegmentID{3, 3, 0, 5, 0},
	)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	d, err := topology.Organize(table, 0)
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}
	return d
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	if s == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseModelNavigation(t *testing.T) {
	m := NewBrowseModel(browseFixture(t))

	if m.Cursor != 0 {
		t.Fatalf("initial cursor = %d, want 0", m.Cursor)
	}

	next, _ := m.Update(keyMsg("j"))
	m = next.(BrowseModel)
	if m.Cursor != 1 {
		t.Errorf("cursor after down = %d, want 1", m.Cursor)
	}

	// Down at the bottom stays put (two networks)
	next, _ = m.Update(keyMsg("j"))
	m = next.(BrowseModel)
	if m.Cursor != 1 {
		t.Errorf("cursor past end = %d, want 1", m.Cursor)
	}

	next, _ = m.Update(keyMsg("k"))
	m = next.(BrowseModel)
	if m.Cursor != 0 {
		t.Errorf("cursor after up = %d, want 0", m.Cursor)
	}
}

func TestBrowseModelSelect(t *testing.T) {
	m := NewBrowseModel(browseFixture(t))

	next, _ := m.Update(keyMsg("enter"))
	m = next.(BrowseModel)
	if m.Selected == nil {
		t.Fatal("enter should select a network")
	}
	if *m.Selected != 3 {
		t.Errorf("selected = %d, want 3", *m.Selected)
	}

	// esc returns to the network list
	next, _ = m.Update(keyMsg("esc"))
	m = next.(BrowseModel)
	if m.Selected != nil {
		t.Error("esc should return to the network list")
	}
}

func TestBrowseModelViews(t *testing.T) {
	m := NewBrowseModel(browseFixture(t))

	top := m.View()
	if !strings.Contains(top, "Independent Networks") {
		t.Error("network view missing title")
	}
	if !strings.Contains(top, "Tailwater") {
		t.Error("network view missing table header")
	}

	next, _ := m.Update(keyMsg("enter"))
	m = next.(BrowseModel)
	detail := m.View()
	if !strings.Contains(detail, "Network 3") {
		t.Errorf("reach view missing network title:\n%s", detail)
	}
}

func TestFormatReach(t *testing.T) {
	short := topology.Reach{1, 2, 3}
	if got := formatReach(short); !strings.Contains(got, "1") || !strings.Contains(got, "3") {
		t.Errorf("formatReach(short) = %q", got)
	}

	long := make(topology.Reach, 20)
	for i := range long {
		long[i] = network.SegmentID(i + 1)
	}
	got := formatReach(long)
	if !strings.Contains(got, "more") {
		t.Errorf("formatReach(long) should elide, got %q", got)
	}
	if !strings.Contains(got, "20") {
		t.Errorf("formatReach(long) should keep the tail segment, got %q", got)
	}
}
