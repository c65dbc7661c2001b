package plugins

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

type mockProvider struct {
	lang  string
	calls int
}

func (m *mockProvider) Language() string { return m.lang }

func (m *mockProvider) TypeDefinitions(_ context.Context, _ typedefs.RequestContext, _ typedefs.FilterConfig) []typedefs.Declaration {
	m.calls++
	return []typedefs.Declaration{{Filename: "mock.d.ts", Contents: "declare var mock: any;\n"}}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{lang: "mock"})
	r.Register(NewHScript(nil))

	if _, err := r.Provider("mock"); err != nil {
		t.Errorf("expected provider, got error: %v", err)
	}
	if _, err := r.Provider("unknown"); err == nil {
		t.Error("expected error for unknown provider")
	}
	if got, want := r.Languages(), []string{"hscript", "mock"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Languages() = %v, want %v", got, want)
	}
}

func TestRegistry_ReplacesSameLanguage(t *testing.T) {
	r := NewRegistry()
	first := &mockProvider{lang: "mock"}
	second := &mockProvider{lang: "mock"}
	r.Register(first)
	r.Register(second)

	p, err := r.Provider("mock")
	if err != nil {
		t.Fatal(err)
	}
	if p != second {
		t.Error("expected later registration to win")
	}
	if n := len(r.Languages()); n != 1 {
		t.Errorf("expected 1 language, got %d", n)
	}
}

func TestHScript_TypeDefinitions(t *testing.T) {
	h := NewHScript(nil)
	if h.Language() != LanguageHScript {
		t.Fatalf("Language() = %q", h.Language())
	}
	defs := h.TypeDefinitions(context.Background(), typedefs.RequestContext{ObjectType: string(typedefs.ObjectTypeCharacter)}, typedefs.FilterConfig{FrameScriptEnabled: true})
	if len(defs) != 1 {
		t.Fatalf("got %d declarations, want 1", len(defs))
	}
	if defs[0].Filename != typedefs.OutputFilename {
		t.Errorf("filename = %q, want %q", defs[0].Filename, typedefs.OutputFilename)
	}
	if !strings.Contains(defs[0].Contents, "declare var self:Character;") {
		t.Error("expected the self declaration in the joined contents")
	}
}
