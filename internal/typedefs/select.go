package typedefs

import (
	"fmt"
	"strings"
)

// OutputFilename names the single declaration file sent to the host.
const OutputFilename = "global.d.ts"

// RequestContext describes the script a type-definition request is for.
// Empty strings mean the field is absent.
type RequestContext struct {
	// Filename is set for script assets and empty for frame scripts.
	Filename          string `json:"filename,omitempty"`
	ScriptingLanguage string `json:"scriptingLanguage,omitempty"`
	// ObjectType is the raw objectType value from the asset metadata.
	ObjectType string `json:"objectType,omitempty"`
}

// IsFrameScript reports whether the request has no owning file.
func (c RequestContext) IsFrameScript() bool { return c.Filename == "" }

// FilterConfig is the user's settings snapshot for one request.
type FilterConfig struct {
	FrameScriptEnabled bool     `json:"frameScriptEnabled"`
	ScriptAssetEnabled bool     `json:"scriptAssetEnabled"`
	Extensions         []string `json:"extensions"`
	Languages          []string `json:"languages"`
}

// Clone returns a deep copy of c.
func (c FilterConfig) Clone() FilterConfig {
	out := c
	out.Extensions = append([]string(nil), c.Extensions...)
	out.Languages = append([]string(nil), c.Languages...)
	return out
}

// Fragment is one named unit of declaration text.
type Fragment struct {
	Name     string `json:"name"`
	Contents string `json:"contents"`
}

// Declaration is the shape the host consumes.
type Declaration struct {
	Filename string `json:"filename"`
	Contents string `json:"contents"`
}

// Result is the ordered output of a selection. A suppressed request yields
// an empty Result.
type Result struct {
	Fragments []Fragment `json:"fragments"`
}

// Empty reports whether nothing was selected.
func (r Result) Empty() bool { return len(r.Fragments) == 0 }

// Names returns the fragment names in order.
func (r Result) Names() []string {
	names := make([]string, len(r.Fragments))
	for i, f := range r.Fragments {
		names[i] = f.Name
	}
	return names
}

// Declarations returns the host payload: one OutputFilename declaration
// holding every fragment, or none when the request was suppressed.
func (r Result) Declarations() []Declaration {
	if r.Empty() {
		return []Declaration{}
	}
	return []Declaration{{Filename: OutputFilename, Contents: r.Contents()}}
}

// Contents joins the fragments with newlines.
func (r Result) Contents() string {
	var b strings.Builder
	for i, f := range r.Fragments {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.Contents)
	}
	return b.String()
}

// Selector chooses declaration fragments for a request.
type Selector interface {
	Select(ctx RequestContext, cfg FilterConfig) Result
}

// Static selects from the embedded payloads.
type Static struct{}

func (Static) Select(ctx RequestContext, cfg FilterConfig) Result {
	return Select(ctx, cfg)
}

// Select decides whether ctx gets declarations under cfg and which ones.
func Select(ctx RequestContext, cfg FilterConfig) Result {
	if Suppressed(ctx, cfg) {
		return Result{}
	}

	frags := []Fragment{{Name: FragmentBase, Contents: basePayload}}

	rule, ok := Resolve(ctx)
	if !ok {
		return Result{Fragments: frags}
	}

	frags = append(frags, ambient(rule)...)
	for _, name := range groups[rule.ObjectType] {
		frags = append(frags, Fragment{Name: name, Contents: payloads[name]})
	}
	return Result{Fragments: frags}
}

// Suppressed reports whether the extension, language or scope gate
// rejects the request.
func Suppressed(ctx RequestContext, cfg FilterConfig) bool {
	if ctx.Filename != "" && len(cfg.Extensions) > 0 && !hasExtension(ctx.Filename, cfg.Extensions) {
		return true
	}
	if ctx.ScriptingLanguage != "" && len(cfg.Languages) > 0 && !contains(cfg.Languages, ctx.ScriptingLanguage) {
		return true
	}
	if ctx.IsFrameScript() {
		return !cfg.FrameScriptEnabled
	}
	return !cfg.ScriptAssetEnabled
}

// Resolve finds the rule for the request's declared object type, falling
// back to an all-ambient ENTITY rule for files whose name contains
// script.hx anywhere.
func Resolve(ctx RequestContext) (Rule, bool) {
	if t, ok := ParseObjectType(ctx.ObjectType); ok {
		if r, ok := rules[t]; ok {
			return r, true
		}
	}
	// Substring match: "myscript.hx" and "Script.hx.bak" both qualify.
	if strings.Contains(strings.ToLower(ctx.Filename), "script.hx") {
		return entityFallback, true
	}
	return Rule{}, false
}

func ambient(r Rule) []Fragment {
	var out []Fragment
	add := func(name, typ string) {
		out = append(out, Fragment{
			Name:     "ambient:" + name,
			Contents: fmt.Sprintf("declare var %s:%s;", name, typ),
		})
	}
	if r.NeedsSelf {
		add("self", r.ClassName)
	}
	if r.NeedsMatch {
		add("match", "Match")
	}
	if r.NeedsCamera {
		add("camera", "Camera")
	}
	if r.NeedsStage {
		add("stage", "Stage")
	}
	return out
}

func hasExtension(filename string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(filename, "."+ext) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
