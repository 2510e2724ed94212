// Command indexer builds the four on-disk index files (name_id.bin,
// id_name.bin, redirects.bin, id_links.bin) from a bzip2-compressed
// MediaWiki XML dump:
//
//	indexer [-out DIR] DUMP-PATH
package main

import (
	"bufio"
	"compress/bzip2"
	"encoding/xml"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/pathgraph/wikipath/internal/idtable"
	"github.com/pathgraph/wikipath/internal/indexdir"
	"github.com/pathgraph/wikipath/internal/linkdb"
	"github.com/pathgraph/wikipath/internal/nametree"
	"github.com/pathgraph/wikipath/internal/redirect"
	"github.com/pathgraph/wikipath/internal/wikipath"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] DUMP-PATH\n", path.Base(os.Args[0]))
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)
	out := flag.String("out", ".", "output directory for name_id.bin, id_name.bin, redirects.bin, id_links.bin")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *out); err != nil {
		log.Fatal(err)
	}
}

func run(dumpPath, outDir string) error {
	unlock, err := indexdir.LockForWrite(outDir)
	if err != nil {
		return fmt.Errorf("indexer: %w", err)
	}
	defer unlock()

	c, err := parseDump(dumpPath)
	if err != nil {
		return fmt.Errorf("indexer: %w", err)
	}
	log.Printf("parsed %d pages (%d redirects, %d skipped)", len(c.idToTitle), len(c.pendingRedirects), c.skipped)

	redirects, unresolvedRedirects := c.resolveRedirects()
	if unresolvedRedirects > 0 {
		log.Printf("skipped %d redirects with an unresolvable target", unresolvedRedirects)
	}

	links, unresolvedLinks := c.resolveLinks()
	if unresolvedLinks > 0 {
		log.Printf("skipped %d links with an unresolvable target", unresolvedLinks)
	}

	if err := writeIndexes(outDir, c, redirects, links); err != nil {
		return fmt.Errorf("indexer: %w", err)
	}
	return nil
}

// page mirrors the subset of a MediaWiki dump's <page> element this
// indexer cares about.
type page struct {
	Title    string `xml:"title"`
	Redirect *struct {
		Title string `xml:"title,attr"`
	} `xml:"redirect"`
	Revision struct {
		Text string `xml:"text"`
	} `xml:"revision"`
}

// corpus accumulates one dump's worth of parsed pages in memory. Article
// ids are assigned densely, starting at 1, in the order pages are first
// seen in the dump — the dump's own <id> field is not reused, since
// nothing downstream of the indexer ever needs to relate an ArticleID
// back to a MediaWiki page id.
type corpus struct {
	titleToID map[string]wikipath.ArticleID // lowercased title -> id
	idToTitle map[wikipath.ArticleID]string // id -> original-case title

	pendingRedirects []pendingRedirect
	pendingLinks     map[wikipath.ArticleID][]string // id -> lowercased link targets

	skipped int
}

type pendingRedirect struct {
	src         wikipath.ArticleID
	targetLower string
}

func newCorpus() *corpus {
	return &corpus{
		titleToID:    make(map[string]wikipath.ArticleID),
		idToTitle:    make(map[wikipath.ArticleID]string),
		pendingLinks: make(map[wikipath.ArticleID][]string),
	}
}

func (c *corpus) maxID() wikipath.ArticleID {
	return wikipath.ArticleID(len(c.idToTitle))
}

// addPage assigns p the next dense id and records it as either a
// redirect (to be resolved in a later pass, since its target may not
// have been seen yet) or a content page with outgoing links.
func (c *corpus) addPage(p page) {
	if p.Title == "" {
		c.skipped++
		return
	}
	id := c.maxID() + 1
	lower := nametree.Lower(p.Title)
	c.titleToID[lower] = id
	c.idToTitle[id] = p.Title

	if p.Redirect != nil && p.Redirect.Title != "" {
		c.pendingRedirects = append(c.pendingRedirects, pendingRedirect{
			src:         id,
			targetLower: nametree.Lower(p.Redirect.Title),
		})
		return
	}

	if links := extractLinks(p.Revision.Text); len(links) > 0 {
		c.pendingLinks[id] = links
	}
}

// resolveRedirects resolves every pending redirect's target title
// against the fully-built title index. Because the whole dump has
// already been scanned once by the time this runs, every title the
// dump will ever define is already in titleToID, so a single read of
// the dump is enough rather than a two-pass streaming resolution built
// to cope with bounded memory.
func (c *corpus) resolveRedirects() (records []redirect.Record, unresolved int) {
	for _, pr := range c.pendingRedirects {
		dst, ok := c.titleToID[pr.targetLower]
		if !ok {
			unresolved++
			continue
		}
		records = append(records, redirect.Record{Src: pr.src, Dst: dst})
	}
	return records, unresolved
}

// resolveLinks resolves every pending page's link targets to article
// ids, dropping targets that name no known page (a dangling link to an
// article the dump never defines, or outside the namespaces this
// indexer keeps).
func (c *corpus) resolveLinks() (records []linkdb.Record, unresolved int) {
	for id, targets := range c.pendingLinks {
		resolved := make([]wikipath.ArticleID, 0, len(targets))
		for _, t := range targets {
			dst, ok := c.titleToID[t]
			if !ok {
				unresolved++
				continue
			}
			resolved = append(resolved, dst)
		}
		if len(resolved) > 0 {
			records = append(records, linkdb.Record{ID: id, Targets: resolved})
		}
	}
	return records, unresolved
}

// parseDump streams a bzip2-compressed MediaWiki XML dump and returns
// its fully parsed corpus. The decoder never buffers the whole
// document: compress/bzip2 decompresses on demand and encoding/xml
// walks the token stream, decoding one <page> element at a time.
func parseDump(dumpPath string) (*corpus, error) {
	f, err := os.Open(dumpPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := decodeDump(bzip2.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", dumpPath, err)
	}
	return c, nil
}

// decodeDump walks r's MediaWiki XML token stream, decoding one <page>
// element at a time, and is the part of parseDump exercised directly
// by tests (compress/bzip2 offers no writer, so tests feed it plain
// XML instead of a compressed dump).
func decodeDump(r io.Reader) (*corpus, error) {
	dec := xml.NewDecoder(bufio.NewReader(r))

	c := newCorpus()
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}
		var p page
		if err := dec.DecodeElement(&p, &start); err != nil {
			return nil, fmt.Errorf("decoding page: %w", err)
		}
		c.addPage(p)
	}
	return c, nil
}

// writeIndexes serializes the resolved corpus to the four index files
// under outDir, overwriting any existing files there.
func writeIndexes(outDir string, c *corpus, redirects []redirect.Record, links []linkdb.Record) error {
	maxID := c.maxID()

	entries := make([]nametree.Entry, 0, len(c.titleToID))
	for lower, id := range c.titleToID {
		entries = append(entries, nametree.Entry{Title: lower, ID: id})
	}
	if err := writeFile(outDir, indexdir.NameIDFile, func(w io.Writer) error {
		return nametree.Write(w, entries)
	}); err != nil {
		return err
	}

	records := make([]idtable.Record, 0, len(c.idToTitle))
	for id, title := range c.idToTitle {
		records = append(records, idtable.Record{ID: id, Title: title})
	}
	if err := writeFile(outDir, indexdir.IDNameFile, func(w io.Writer) error {
		return idtable.Write(w, maxID, records)
	}); err != nil {
		return err
	}

	if err := writeFile(outDir, indexdir.RedirectsFile, func(w io.Writer) error {
		return redirect.Write(w, redirects)
	}); err != nil {
		return err
	}

	if err := writeFile(outDir, indexdir.IDLinksFile, func(w io.Writer) error {
		return linkdb.Write(w, maxID, links)
	}); err != nil {
		return err
	}

	return nil
}

func writeFile(dir, name string, write func(io.Writer) error) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing %s: %w", name, err)
	}
	return f.Close()
}
