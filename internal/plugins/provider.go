package plugins

import (
	"context"

	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

// Provider produces declarations for one scripting language.
type Provider interface {
	// Language returns the scripting language identifier (e.g. "hscript").
	Language() string
	// TypeDefinitions returns the declarations for a script, possibly none.
	TypeDefinitions(ctx context.Context, rc typedefs.RequestContext, cfg typedefs.FilterConfig) []typedefs.Declaration
}

// LanguageHScript is the Fraymakers gameplay scripting language.
const LanguageHScript = "hscript"

// HScript serves the Fraymakers API declarations.
type HScript struct {
	selector typedefs.Selector
}

// NewHScript creates the hscript provider. A nil selector uses the
// embedded payloads directly.
func NewHScript(sel typedefs.Selector) *HScript {
	if sel == nil {
		sel = typedefs.Static{}
	}
	return &HScript{selector: sel}
}

func (h *HScript) Language() string { return LanguageHScript }

func (h *HScript) TypeDefinitions(_ context.Context, rc typedefs.RequestContext, cfg typedefs.FilterConfig) []typedefs.Declaration {
	return h.selector.Select(rc, cfg).Declarations()
}
