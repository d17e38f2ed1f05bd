package resolver

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Attributes added to live DOM snapshots. A snapshot taken from a running
// page carries them on every element; a plain HTML file carries none and
// falls back to static inspection.
const (
	AttrID      = "data-padnav-id"
	AttrVisible = "data-padnav-visible"
	AttrOnClick = "data-padnav-onclick"
	AttrRect    = "data-padnav-rect"
)

// Parse reads a DOM snapshot.
func Parse(src string) (*html.Node, error) {
	return html.Parse(strings.NewReader(src))
}

// ParseFile reads a DOM snapshot from disk.
func ParseFile(path string) (*html.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return html.Parse(f)
}

// ID returns the live element index recorded in the snapshot.
func (e Element) ID() (int, bool) {
	v, ok := attr(e.Node, AttrID)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(v)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Rect returns the bounding client rect recorded in the snapshot.
func (e Element) Rect() (x, y, w, h float64, ok bool) {
	v, found := attr(e.Node, AttrRect)
	if !found {
		return 0, 0, 0, 0, false
	}
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, false
	}
	var vals [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, 0, 0, false
		}
		vals[i] = f
	}
	return vals[0], vals[1], vals[2], vals[3], true
}

// Center returns the midpoint of the element's bounding rect.
func (e Element) Center() (x, y float64, ok bool) {
	left, top, w, h, ok := e.Rect()
	if !ok {
		return 0, 0, false
	}
	return left + w/2, top + h/2, true
}

// Rendered reports whether n has an offset parent: it takes part in layout,
// is attached to the document and is not position:fixed.
func Rendered(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if v, ok := attr(n, AttrVisible); ok {
		return v == "1"
	}

	switch n.Data {
	case "html", "body":
		return false
	}
	if styleHas(n, "position:fixed") {
		return false
	}

	top := n
	for p := n; p != nil; p = p.Parent {
		top = p
		if p.Type != html.ElementNode {
			continue
		}
		switch p.Data {
		case "head", "script", "style", "template", "noscript", "title", "meta", "link":
			return false
		case "input":
			if t, _ := attr(p, "type"); strings.EqualFold(t, "hidden") {
				return false
			}
		}
		if _, hidden := attr(p, "hidden"); hidden {
			return false
		}
		if styleHas(p, "display:none") {
			return false
		}
	}
	return top.Type == html.DocumentNode
}

func styleHas(n *html.Node, decl string) bool {
	style, ok := attr(n, "style")
	if !ok {
		return false
	}
	compact := strings.ToLower(strings.Join(strings.Fields(style), ""))
	for _, d := range strings.Split(compact, ";") {
		if strings.TrimSuffix(d, "!important") == decl {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
