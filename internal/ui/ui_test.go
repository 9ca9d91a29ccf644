package ui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestNoColorPassthrough(t *testing.T) {
	t.Parallel()
	var out, errOut bytes.Buffer
	p := NewWriter(&out, &errOut, true)

	got := p.Release(stringer("3.12.3"), "20240415")
	if got != "3.12.3 @ 20240415" {
		t.Errorf("Release = %q", got)
	}
	if got := p.Dist("x86_64-unknown-linux-gnu-install_only"); got != `distribution="x86_64-unknown-linux-gnu-install_only"` {
		t.Errorf("Dist = %q", got)
	}

	p.Warnf("stale %s", "pointer")
	if errOut.String() != "Warning: stale pointer\n" {
		t.Errorf("warn output = %q", errOut.String())
	}
}

// assigned returns the foreground color the table picked for text.
func assigned(tbl *colorTable, text string) string {
	tbl.render(text)
	style := tbl.colors[tbl.keyFn(text)]
	fg, _ := style.GetForeground().(lipgloss.Color)
	return string(fg)
}

func TestColorAssignmentIsStable(t *testing.T) {
	t.Parallel()
	tbl := newColorTable("", true, nil)
	a1 := assigned(tbl, "20240415")
	b := assigned(tbl, "20240601")
	a2 := assigned(tbl, "20240415")
	if a1 != a2 {
		t.Errorf("same tag colored differently: %q vs %q", a1, a2)
	}
	if a1 == b {
		t.Errorf("distinct tags share color %q", a1)
	}
}

func TestDistFamilySharesColor(t *testing.T) {
	t.Parallel()
	tbl := newColorTable("", true, distKey)
	a := assigned(tbl, "x86_64-unknown-linux-gnu-install_only")
	b := assigned(tbl, "x86_64-pc-windows-msvc-install_only")
	c := assigned(tbl, "aarch64-apple-darwin-install_only")
	if a != b {
		t.Errorf("same family colored differently: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different families share color %q", a)
	}
}

func TestSeededAnchorColor(t *testing.T) {
	t.Parallel()
	tbl := newColorTable("20240415", true, nil)
	if got := assigned(tbl, "20240415"); got != string(palette[0]) {
		t.Errorf("seed color = %q, want %q", got, palette[0])
	}
	if got := assigned(tbl, "20240601"); got == string(palette[0]) {
		t.Error("non-seed value got the anchor color")
	}
}

func TestOutputSeparation(t *testing.T) {
	t.Parallel()
	var out, errOut bytes.Buffer
	p := NewWriter(&out, &errOut, true)

	p.Println("payload")
	p.Infof("status")
	p.Errorf("boom")

	if out.String() != "payload\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if errOut.String() != "status\nError: boom\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}
