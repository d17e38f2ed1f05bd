package resolver

import (
	"errors"
	"testing"

	"golang.org/x/net/html"
)

func mustParse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func mustResolve(t *testing.T, src string, dir Direction) Element {
	t.Helper()
	el, err := Resolve(mustParse(t, src), dir)
	if err != nil {
		t.Fatalf("resolve %s: %v", dir, err)
	}
	return el
}

func TestTagPriorityBeatsDocumentOrder(t *testing.T) {
	// both only match the "다음" token; the anchor outranks the later span
	el := mustResolve(t, `<html><body>
		<p><span id="first">다음 보기</span></p>
		<p><a id="second" href="/2">다음</a></p>
	</body></html>`, Next)
	if el.Tag() != "a" {
		t.Fatalf("tag: got %q want a (text %q)", el.Tag(), el.Text())
	}
}

func TestFirstMatchingTokenWins(t *testing.T) {
	// "다음화" is tried before "다음", so the span wins even though an anchor
	// with lower-ranked token text exists.
	el := mustResolve(t, `<html><body>
		<p><a href="/2">다음</a></p>
		<p><span>다음화 보기</span></p>
	</body></html>`, Next)
	if el.Token != "다음화" {
		t.Fatalf("token: got %q", el.Token)
	}
	if el.Tag() != "span" {
		t.Fatalf("tag: got %q want span", el.Tag())
	}
}

func TestShorterTextBreaksTies(t *testing.T) {
	el := mustResolve(t, `<html><body>
		<nav><a href="/long">다음 에피소드로</a></nav>
		<nav><a href="/short">다음</a></nav>
	</body></html>`, Next)
	if got := el.Text(); got != "다음" {
		t.Fatalf("text: got %q want 다음", got)
	}
}

func TestTieBreakByUTF16Length(t *testing.T) {
	el := mustResolve(t, `<html><body>
		<a href="/a">다음 다음 다음 다음</a>
		<a href="/b">다음</a>
	</body></html>`, Next)
	if jsLength(el.Text()) != 2 {
		t.Fatalf("length: got %d want 2", jsLength(el.Text()))
	}
	if jsLength("다음 다음 다음 다음") != 11 {
		t.Fatalf("utf16 length mismatch")
	}
}

func TestFullTieKeepsDocumentOrder(t *testing.T) {
	el := mustResolve(t, `<html><body>
		<a href="/one">next</a>
		<a href="/two">next</a>
	</body></html>`, Next)
	if href, _ := attr(el.Node, "href"); href != "/one" {
		t.Fatalf("href: got %q want /one", href)
	}
}

func TestHiddenElementsAreSkipped(t *testing.T) {
	el := mustResolve(t, `<html><body>
		<div style="display: none"><a href="/hidden">next</a></div>
		<a hidden href="/hidden2">next</a>
		<button>next</button>
	</body></html>`, Next)
	if el.Tag() != "button" {
		t.Fatalf("tag: got %q want button", el.Tag())
	}
}

func TestInlineHandlerMakesAnyTagClickable(t *testing.T) {
	el := mustResolve(t, `<html><body>
		<li onclick="go(1)">Prev</li>
	</body></html>`, Previous)
	if el.Tag() != "li" {
		t.Fatalf("tag: got %q want li", el.Tag())
	}
}

func TestNonClickableTagsIgnoredInTextPhase(t *testing.T) {
	_, err := Resolve(mustParse(t, `<html><body><p>next</p><li>next</li></body></html>`), Next)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSelectorPhaseWhenNoTextMatches(t *testing.T) {
	el := mustResolve(t, `<html><body>
		<i class="ico chapter-next"></i>
		<i class="btn-next"></i>
	</body></html>`, Next)
	if el.Source != MatchSelector {
		t.Fatalf("source: got %q", el.Source)
	}
	// .btn-next is listed before .chapter-next
	if el.Token != ".btn-next" {
		t.Fatalf("selector: got %q want .btn-next", el.Token)
	}
}

func TestSelectorPhaseSkipsHiddenMatches(t *testing.T) {
	el := mustResolve(t, `<html><body>
		<i class="prev" style="display:none"></i>
		<i class="prev" id="visible"></i>
	</body></html>`, Previous)
	if id, _ := attr(el.Node, "id"); id != "visible" {
		t.Fatalf("id: got %q want visible", id)
	}
}

func TestSubstringClassSelector(t *testing.T) {
	el := mustResolve(t, `<html><body><i class="pagination__nextLink"></i></body></html>`, Next)
	if el.Token != `[class*="next"]` {
		t.Fatalf("selector: got %q", el.Token)
	}
}

func TestTextPhaseShortCircuitsSelectors(t *testing.T) {
	el := mustResolve(t, `<html><body>
		<i class="next"></i>
		<span>→</span>
	</body></html>`, Next)
	if el.Source != MatchText || el.Tag() != "span" {
		t.Fatalf("got %s %s", el.Source, el.Tag())
	}
}

func TestNotFound(t *testing.T) {
	_, err := Resolve(mustParse(t, `<html><body><p>nothing here</p></body></html>`), Previous)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := Resolve(nil, Next); !errors.Is(err, ErrNotFound) {
		t.Fatalf("nil doc: expected ErrNotFound, got %v", err)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<div><span>이전화</span><a href="/p">이전</a></div>
	</body></html>`)
	first, err := Resolve(doc, Previous)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := Resolve(doc, Previous)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.Node != second.Node {
		t.Fatalf("resolve is not idempotent: %p vs %p", first.Node, second.Node)
	}
}

func TestSnapshotAnnotationsOverrideStaticVisibility(t *testing.T) {
	el := mustResolve(t, `<html data-padnav-id="0" data-padnav-visible="0"><body data-padnav-id="2" data-padnav-visible="0">
		<a data-padnav-id="3" data-padnav-visible="0" data-padnav-rect="0,0,10,10">next</a>
		<a data-padnav-id="4" data-padnav-visible="1" data-padnav-rect="10,20,100,40" style="position:fixed">next</a>
	</body></html>`, Next)
	id, ok := el.ID()
	if !ok || id != 4 {
		t.Fatalf("id: got %d %v want 4", id, ok)
	}
	x, y, ok := el.Center()
	if !ok || x != 60 || y != 40 {
		t.Fatalf("center: got %v,%v %v want 60,40", x, y, ok)
	}
}

func TestSnapshotOnClickAnnotation(t *testing.T) {
	el := mustResolve(t, `<html><body>
		<li data-padnav-onclick="1" data-padnav-visible="1">다음글</li>
	</body></html>`, Next)
	if el.Tag() != "li" {
		t.Fatalf("tag: got %q want li", el.Tag())
	}
}

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{"next": Next, "Prev": Previous, " previous ": Previous}
	for in, want := range cases {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Fatalf("ParseDirection(%q): got %v, %v", in, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}
