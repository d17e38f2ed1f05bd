// Package resolver finds the in-page control that navigates to the next or
// previous item on an unknown page.
//
// Resolution runs in two phases over a parsed DOM snapshot. The text phase
// walks a list of direction tokens and returns the best ranked rendered
// clickable element whose text contains the first token that matches
// anything. Only when no token matches does the selector phase try a list of
// class selectors. Resolve is a pure function of the snapshot.
package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

var ErrNotFound = errors.New("navigation target not found")

// Direction is a navigation intent.
type Direction uint8

const (
	Next Direction = iota
	Previous
)

func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// ParseDirection accepts next, prev and previous.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "next":
		return Next, nil
	case "prev", "previous":
		return Previous, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

var textTokens = [...][]string{
	Next:     {"다음화", "다음 화", "다음편", "다음 편", "next", "Next", "→", "▶", "▷", "▶️", "다음", "다음글", "다음회"},
	Previous: {"이전화", "이전 화", "이전편", "이전 편", "prev", "Prev", "←", "◀", "◁", "◀️", "이전", "이전글", "이전회"},
}

var selectorSources = [...][]string{
	Next:     {".next", ".next-btn", ".next-button", ".btn-next", ".episode-next", ".chapter-next", `[class*="next"]`},
	Previous: {".prev", ".prev-btn", ".prev-button", ".btn-prev", ".episode-prev", ".chapter-prev", `[class*="prev"]`},
}

var compiledSelectors = compileSelectors()

// clickableExpr selects elements that can take a click: the four generic
// tags or anything carrying an inline handler. Document order is preserved.
var clickableExpr = xpath.MustCompile(
	`//*[self::a or self::button or self::div or self::span or @onclick or @` + AttrOnClick + `="1"]`,
)

func compileSelectors() [2][]cascadia.Selector {
	var out [2][]cascadia.Selector
	for d, list := range selectorSources {
		for _, src := range list {
			out[d] = append(out[d], cascadia.MustCompile(src))
		}
	}
	return out
}

// Tokens returns the text tokens tried for dir, in order.
func Tokens(dir Direction) []string {
	return append([]string(nil), textTokens[dir]...)
}

// Selectors returns the CSS selectors tried for dir, in order.
func Selectors(dir Direction) []string {
	return append([]string(nil), selectorSources[dir]...)
}

// MatchSource tells which phase produced a result.
type MatchSource string

const (
	MatchText     MatchSource = "text"
	MatchSelector MatchSource = "selector"
)

// Element is a resolved navigation target.
type Element struct {
	Node   *html.Node
	Source MatchSource
	// Token is the text token or selector that matched.
	Token string
}

func (e Element) Tag() string {
	if e.Node == nil {
		return ""
	}
	return e.Node.Data
}

// Text returns the trimmed text content.
func (e Element) Text() string {
	if e.Node == nil {
		return ""
	}
	return textContent(e.Node)
}

// candidate is a text-phase match with its ranking keys.
type candidate struct {
	node     *html.Node
	priority int
	length   int
}

var tagPriority = map[string]int{
	"a":      4,
	"button": 3,
	"span":   2,
	"div":    1,
}

// Resolve returns the best navigation target for dir in doc.
func Resolve(doc *html.Node, dir Direction) (Element, error) {
	if doc == nil || dir > Previous {
		return Element{}, ErrNotFound
	}

	clickable := rendered(htmlquery.QuerySelectorAll(doc, clickableExpr))
	texts := make([]string, len(clickable))
	for i, n := range clickable {
		texts[i] = textContent(n)
	}

	for _, token := range textTokens[dir] {
		var found []candidate
		for i, n := range clickable {
			if !strings.Contains(texts[i], token) {
				continue
			}
			found = append(found, candidate{
				node:     n,
				priority: tagPriority[n.Data],
				length:   jsLength(texts[i]),
			})
		}
		if len(found) == 0 {
			continue
		}
		rank(found)
		return Element{Node: found[0].node, Source: MatchText, Token: token}, nil
	}

	for i, sel := range compiledSelectors[dir] {
		for _, n := range cascadia.QueryAll(doc, sel) {
			if Rendered(n) {
				return Element{Node: n, Source: MatchSelector, Token: selectorSources[dir][i]}, nil
			}
		}
	}
	return Element{}, ErrNotFound
}

// rank orders candidates by tag priority descending, then by text length
// ascending. Full ties keep document order.
func rank(c []candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].priority != c[j].priority {
			return c[i].priority > c[j].priority
		}
		return c[i].length < c[j].length
	})
}

func rendered(nodes []*html.Node) []*html.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if Rendered(n) {
			out = append(out, n)
		}
	}
	return out
}

func textContent(n *html.Node) string {
	return strings.TrimSpace(htmlquery.InnerText(n))
}

// jsLength counts UTF-16 code units, the unit page scripts measure labels in.
func jsLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}
