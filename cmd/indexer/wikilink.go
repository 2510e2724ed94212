package main

import (
	"regexp"
	"strings"
)

// templateRe strips {{...}} template invocations before link extraction.
// It is not nesting-aware: it trades complete template handling for a
// cheap single pass. Only brace pairs with no braces inside are removed,
// so a nested template leaves its outer braces and text behind; braces
// never match wikiLinkRe, but a link in that leftover text is still
// extracted.
var templateRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// commentRe strips <!-- ... --> HTML comments.
var commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

// wikiLinkRe matches [[target]] and [[target|label]] style wiki links.
// The target is everything up to the first '|' or ']]'.
var wikiLinkRe = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]*)?\]\]`)

// skippedNamespacePrefixes are link targets that do not name an article
// in the id space — categories and file/image descriptions are
// metadata, not content pages.
var skippedNamespacePrefixes = []string{"category:", "file:", "image:"}

// extractLinks returns the lowercased link targets found in a page's
// wiki markup text, with templates and comments stripped first and
// non-article namespaces filtered out.
func extractLinks(text string) []string {
	text = commentRe.ReplaceAllString(text, "")
	text = templateRe.ReplaceAllString(text, "")

	matches := wikiLinkRe.FindAllStringSubmatch(text, -1)
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		target := strings.ToLower(strings.TrimSpace(m[1]))
		if target == "" || hasSkippedNamespace(target) {
			continue
		}
		links = append(links, target)
	}
	return links
}

func hasSkippedNamespace(lowerTarget string) bool {
	for _, prefix := range skippedNamespacePrefixes {
		if strings.HasPrefix(lowerTarget, prefix) {
			return true
		}
	}
	return false
}
