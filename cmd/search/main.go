// Command search resolves two article titles to ids and prints a
// shortest path of inter-article links between them:
//
//	search <source-title> <dest-title>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pathgraph/wikipath/internal/bfs"
	"github.com/pathgraph/wikipath/internal/indexdir"
	"github.com/pathgraph/wikipath/internal/linkdb"
	"github.com/pathgraph/wikipath/internal/nametree"
	"github.com/pathgraph/wikipath/internal/wikipath"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] SOURCE-TITLE DEST-TITLE\n", path.Base(os.Args[0]))
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)
	dir := flag.String("dir", ".", "directory containing name_id.bin, id_name.bin, redirects.bin, id_links.bin")
	workers := flag.Int("workers", bfs.DefaultWorkers, "number of BFS worker goroutines per round")
	timeout := flag.Duration("timeout", bfs.DefaultTimeout, "work queue inactivity timeout before a worker treats its round as exhausted")
	batch := flag.Int("batch", bfs.DefaultBatch, "output queue drain batch size (K)")
	prefetch := flag.Bool("prefetch", true, "warm the adjacency cache in the background while the search runs")
	verbose := flag.Bool("v", false, "log the resolved source and destination ids and the worker count to stderr before searching (no per-round output)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(2)
	}

	if err := run(*dir, flag.Arg(0), flag.Arg(1), *workers, *timeout, *batch, *prefetch, *verbose); err != nil {
		if exitErr, ok := err.(exitCode); ok {
			if exitErr.msg != "" {
				fmt.Fprintln(os.Stderr, exitErr.msg)
			}
			os.Exit(exitErr.code)
		}
		log.Fatal(err)
	}
}

// exitCode carries a process exit status out of run without making main
// itself responsible for picking apart error causes to choose a code.
type exitCode struct {
	code int
	msg  string
}

func (e exitCode) Error() string { return e.msg }

func run(dir, sourceTitle, destTitle string, workers int, timeout time.Duration, batch int, prefetch, verbose bool) error {
	set, err := indexdir.Open(dir)
	if err != nil {
		return exitCode{code: 1, msg: err.Error()}
	}
	defer set.Close()

	source, err := resolve(set, sourceTitle)
	if err != nil {
		return err
	}
	dest, err := resolve(set, destTitle)
	if err != nil {
		return err
	}

	var pf *linkdb.Prefetcher
	if prefetch {
		pf = linkdb.NewPrefetcher(set.Links)
		go pf.Run()
		defer pf.WaitStopped(time.Second)
	}

	engine := &bfs.Engine{DB: set.Links, Workers: workers, Timeout: timeout, Batch: batch}
	if verbose {
		log.Printf("searching %s (%d) -> %s (%d) with %d workers", sourceTitle, source, destTitle, dest, workers)
	}

	result, err := engine.Run(source, dest)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if !result.Found {
		fmt.Println("no path")
		return nil
	}

	titles := make([]string, len(result.Path))
	for i, id := range result.Path {
		name, err := set.Titles.Name(id)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		titles[i] = name
	}
	fmt.Println(strings.Join(titles, " -> "))
	return nil
}

// resolve looks up title's article id and follows its redirect, if any.
// It returns exitCode{1} if the title is not found.
func resolve(set *indexdir.Set, title string) (wikipath.ArticleID, error) {
	id, err := set.Names.Lookup(nametree.Lower(title))
	if err != nil {
		return 0, fmt.Errorf("search: %w", err)
	}
	if id.Invalid() {
		return 0, exitCode{code: 1, msg: fmt.Sprintf("name not found: %q", title)}
	}
	resolved, err := set.Redirects.ResolveChecked(id, indexdir.RedirectsFile)
	if err != nil {
		return 0, err
	}
	return resolved, nil
}
