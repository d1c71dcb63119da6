package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOverridesDefaults(t *testing.T) {
	th, err := Parse(strings.NewReader("Name: Sepia\n# comment\nviewbackground: #704214\nMenuText: #11223380\nnot a pair\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "Sepia" {
		t.Errorf("name = %q", th.Name)
	}
	if th.ViewBackground != (color.RGBA{0x70, 0x42, 0x14, 255}) {
		t.Errorf("ViewBackground = %v", th.ViewBackground)
	}
	if th.MenuText != (color.RGBA{0x11, 0x22, 0x33, 0x80}) {
		t.Errorf("MenuText = %v", th.MenuText)
	}
	if th.StatusText != Default().StatusText {
		t.Errorf("unset field lost its default: %v", th.StatusText)
	}
}

func TestParseRejectsBadColor(t *testing.T) {
	for _, in := range []string{"MenuText: red", "MenuText: #12345", "MenuText: #GGGGGG"} {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("Parse(%q) succeeded", in)
		}
	}
}

func TestFormatColorRoundTrip(t *testing.T) {
	for _, c := range []color.RGBA{{1, 2, 3, 255}, {0xAB, 0xCD, 0xEF, 0x10}} {
		got, err := ParseColor(FormatColor(c))
		if err != nil {
			t.Fatalf("ParseColor: %v", err)
		}
		if got != c {
			t.Errorf("round trip %v -> %v", c, got)
		}
	}
}

func TestEmbeddedThemesParse(t *testing.T) {
	names := EmbeddedNames()
	if diff := cmp.Diff([]string{"dark", "default"}, names); diff != "" {
		t.Fatalf("embedded themes mismatch (-want +got):\n%s", diff)
	}
	l := &Loader{}
	for _, n := range names {
		th, err := l.Load(n)
		if err != nil {
			t.Fatalf("Load(%q): %v", n, err)
		}
		if th.Name == "" {
			t.Errorf("theme %q has no name", n)
		}
	}
	def, _ := l.Load("default")
	if diff := cmp.Diff(Default(), def); diff != "" {
		t.Errorf("embedded default differs from Default() (-want +got):\n%s", diff)
	}
}

func TestLoaderOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "paper.theme"), []byte("Name: Paper\nViewBackground: #FFFFFF\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	inline := Default()
	inline.Name = "inline"
	l := &Loader{ConfigDir: dir, Inline: map[string]*Theme{"mine": inline}}

	if th, err := l.Load("paper"); err != nil || th.Name != "Paper" {
		t.Fatalf("config dir theme = %+v, %v", th, err)
	}
	if th, err := l.Load("mine"); err != nil || th != inline {
		t.Fatalf("inline theme = %+v, %v", th, err)
	}
	if th, err := l.Load(filepath.Join(dir, "paper.theme")); err != nil || th.ViewBackground != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("path theme = %+v, %v", th, err)
	}
	if th, err := l.Load(""); err != nil || th.Name != "Default" {
		t.Fatalf("empty name = %+v, %v", th, err)
	}
	if _, err := l.Load("missing"); err == nil {
		t.Fatal("expected error for missing theme")
	}
}

func TestColorFields(t *testing.T) {
	fields := ColorFields()
	if len(fields) == 0 || fields[0] != "ViewBackground" {
		t.Fatalf("fields = %v", fields)
	}
	c, ok := Default().Color("MenuActive")
	if !ok || c != Default().MenuActive {
		t.Fatalf("Color(MenuActive) = %v, %v", c, ok)
	}
	if _, ok := Default().Color("Nope"); ok {
		t.Fatal("unknown field reported ok")
	}
}
