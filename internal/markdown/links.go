package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// RefKind classifies an extracted reference.
type RefKind string

const (
	RefKindLink  RefKind = "link"
	RefKindImage RefKind = "image"
)

// Ref is a link or image destination found in a Markdown body.
type Ref struct {
	Kind        RefKind
	Destination string
}

// ExtractRefs parses a Markdown body and returns link and image destinations.
//
// This is an analysis API; it does not re-render Markdown.
func ExtractRefs(body []byte) []Ref {
	md := goldmark.New()
	ctx := gmparser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), gmparser.WithContext(ctx))

	refs := make([]Ref, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Image:
			refs = append(refs, Ref{Kind: RefKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			refs = append(refs, Ref{Kind: RefKindLink, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not the AST.
	for _, ref := range ctx.References() {
		refs = append(refs, Ref{Kind: RefKindLink, Destination: string(ref.Destination())})
	}

	return refs
}

// LocalRefs filters refs down to repository-local destinations: anything that
// is not an absolute URL, protocol-relative, mailto, or a pure fragment.
func LocalRefs(refs []Ref) []Ref {
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		d := r.Destination
		if d == "" || strings.HasPrefix(d, "#") {
			continue
		}
		if strings.Contains(d, "://") || strings.HasPrefix(d, "//") || strings.HasPrefix(d, "mailto:") {
			continue
		}
		out = append(out, r)
	}
	return out
}
