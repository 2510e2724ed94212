package main

import (
	"strings"
	"testing"

	"github.com/pathgraph/wikipath/internal/wikipath"
)

const sampleDump = `<mediawiki>
  <page>
    <title>Go</title>
    <revision><text>A language with [[Gopher]]s and [[Rob Pike]].</text></revision>
  </page>
  <page>
    <title>Gopher</title>
    <revision><text>A mascot, see [[Go]].</text></revision>
  </page>
  <page>
    <title>Rob Pike</title>
    <revision><text>No outgoing links here.</text></revision>
  </page>
  <page>
    <title>Golang</title>
    <redirect title="Go" />
  </page>
  <page>
    <title></title>
    <revision><text>malformed, no title</text></revision>
  </page>
</mediawiki>`

func TestDecodeDumpAssignsDenseIDs(t *testing.T) {
	c, err := decodeDump(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatal(err)
	}
	if c.skipped != 1 {
		t.Errorf("skipped = %d, want 1", c.skipped)
	}
	if c.maxID() != 4 {
		t.Errorf("maxID() = %d, want 4 (titled pages only, skipped page excluded)", c.maxID())
	}
	for id := wikipath.ArticleID(1); id <= c.maxID(); id++ {
		if _, ok := c.idToTitle[id]; !ok {
			t.Errorf("id %d has no title", id)
		}
	}
}

func TestDecodeDumpPendingRedirect(t *testing.T) {
	c, err := decodeDump(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.pendingRedirects) != 1 {
		t.Fatalf("pendingRedirects = %d, want 1", len(c.pendingRedirects))
	}
	golangID := c.titleToID["golang"]
	if c.pendingRedirects[0].src != golangID {
		t.Errorf("redirect src = %d, want %d", c.pendingRedirects[0].src, golangID)
	}
	if c.pendingRedirects[0].targetLower != "go" {
		t.Errorf("redirect target = %q, want %q", c.pendingRedirects[0].targetLower, "go")
	}
}

func TestResolveRedirectsAndLinks(t *testing.T) {
	c, err := decodeDump(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatal(err)
	}

	redirects, unresolvedR := c.resolveRedirects()
	if unresolvedR != 0 {
		t.Errorf("unresolved redirects = %d, want 0", unresolvedR)
	}
	if len(redirects) != 1 {
		t.Fatalf("redirects = %d, want 1", len(redirects))
	}
	goID := c.titleToID["go"]
	if redirects[0].Dst != goID {
		t.Errorf("redirect dst = %d, want %d", redirects[0].Dst, goID)
	}

	links, unresolvedL := c.resolveLinks()
	if unresolvedL != 0 {
		t.Errorf("unresolved links = %d, want 0", unresolvedL)
	}
	byID := make(map[wikipath.ArticleID][]wikipath.ArticleID, len(links))
	for _, l := range links {
		byID[l.ID] = l.Targets
	}
	gopherID := c.titleToID["gopher"]
	pikeID := c.titleToID["rob pike"]
	goTargets := byID[goID]
	if len(goTargets) != 2 {
		t.Fatalf("Go's targets = %v, want 2 entries", goTargets)
	}
	wantSet := map[wikipath.ArticleID]bool{gopherID: true, pikeID: true}
	for _, tgt := range goTargets {
		if !wantSet[tgt] {
			t.Errorf("unexpected target %d in Go's links", tgt)
		}
	}
	if _, ok := byID[pikeID]; ok {
		t.Errorf("Rob Pike should have no outgoing links record")
	}
}

func TestResolveLinksDanglingTargetSkipped(t *testing.T) {
	const dump = `<mediawiki>
  <page><title>Go</title><revision><text>[[Nonexistent Page]]</text></revision></page>
</mediawiki>`
	c, err := decodeDump(strings.NewReader(dump))
	if err != nil {
		t.Fatal(err)
	}
	links, unresolved := c.resolveLinks()
	if unresolved != 1 {
		t.Errorf("unresolved = %d, want 1", unresolved)
	}
	if len(links) != 0 {
		t.Errorf("links = %v, want none (the only target was dangling)", links)
	}
}

func TestResolveRedirectsDanglingTargetSkipped(t *testing.T) {
	const dump = `<mediawiki>
  <page><title>Golang</title><redirect title="Nonexistent"/></page>
</mediawiki>`
	c, err := decodeDump(strings.NewReader(dump))
	if err != nil {
		t.Fatal(err)
	}
	redirects, unresolved := c.resolveRedirects()
	if unresolved != 1 {
		t.Errorf("unresolved = %d, want 1", unresolved)
	}
	if len(redirects) != 0 {
		t.Errorf("redirects = %v, want none", redirects)
	}
}
