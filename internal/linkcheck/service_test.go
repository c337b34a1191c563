package linkcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const siteBase = "https://softice.dev"

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestExtractLinksFromReader(t *testing.T) {
	doc := `<html><body>
<a href="/posts/a/">internal</a>
<a href="https://softice.dev/posts/b/">internal absolute</a>
<a href="https://example.com/">external</a>
<a href="#section">fragment</a>
<a href="mailto:x@y.z">mail</a>
<img src="/images/d.png">
</body></html>`

	links, err := ExtractLinksFromReader(strings.NewReader(doc), siteBase)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(links) != 6 {
		t.Fatalf("expected 6 links, got %d: %v", len(links), links)
	}

	internal := 0
	for _, l := range links {
		if l.IsInternal {
			internal++
		}
	}
	if internal != 3 { // /posts/a/, absolute same-host, /images/d.png
		t.Fatalf("expected 3 internal links, got %d: %v", internal, links)
	}
}

func TestVerifyDirCleanSite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", `<html><body><a href="/posts/a/">a</a></body></html>`)
	writeFile(t, root, "posts/a/index.html", `<html><body><img src="/images/d.png"><a href="../b/">sibling</a></body></html>`)
	writeFile(t, root, "posts/b/index.html", `<html><body>b</body></html>`)
	writeFile(t, root, "images/d.png", "png-bytes")

	violations, err := VerifyDir(root, siteBase)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestVerifyDirFlagsBrokenRefs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", `<html><body>
<a href="/posts/missing/">gone</a>
<img src="/images/ghost.png">
<a href="https://external.example/ok">external is never checked</a>
</body></html>`)

	violations, err := VerifyDir(root, siteBase)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", violations)
	}
	urls := map[string]bool{}
	for _, v := range violations {
		urls[v.URL] = true
		if v.Page != "/index.html" {
			t.Fatalf("unexpected page: %s", v.Page)
		}
	}
	if !urls["/posts/missing/"] || !urls["/images/ghost.png"] {
		t.Fatalf("unexpected violation set: %v", violations)
	}
}

func TestVerifyDirRejectsTreeEscape(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", `<html><body><a href="../../etc/passwd">escape</a></body></html>`)

	violations, err := VerifyDir(root, siteBase)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected escape to be flagged, got %v", violations)
	}
}
