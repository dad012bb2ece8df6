package dom

import "testing"

func TestLoadBuildsTreeAndCollectsScripts(t *testing.T) {
	doc, scripts, err := Load(`<html><body><div id="main" class="a b"><p>hello</p></div><script>var x = 1;</script></body></html>`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Root == NoHandle {
		t.Fatalf("no root")
	}
	h, ok := doc.ByID("main")
	if !ok {
		t.Fatalf("id index missed #main")
	}
	n := doc.Node(h)
	if n.TagName != "div" {
		t.Fatalf("tag = %s, want div", n.TagName)
	}
	if len(scripts) != 1 || scripts[0].Code != "var x = 1;" {
		t.Fatalf("scripts = %#v", scripts)
	}
}

func TestQuerySelectorAllCombinatorsAndPseudos(t *testing.T) {
	doc, _, err := Load(`<html><body>
		<ul id="list">
			<li class="item">one</li>
			<li class="item">two</li>
			<li class="item">three</li>
		</ul>
	</body></html>`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	list := mustParse("#list > li:nth-child(2)")
	matches := doc.QuerySelectorAll(doc.Root, list)
	if len(matches) != 1 {
		t.Fatalf("nth-child(2) matched %d, want 1", len(matches))
	}
	if doc.TextContent(matches[0]) != "two" {
		t.Fatalf("matched %q, want two", doc.TextContent(matches[0]))
	}

	firstChild := mustParse("li:first-child")
	fm := doc.QuerySelectorAll(doc.Root, firstChild)
	if len(fm) != 1 || doc.TextContent(fm[0]) != "one" {
		t.Fatalf("first-child matched %v", fm)
	}

	not := mustParse("li:not(.item)")
	nm := doc.QuerySelectorAll(doc.Root, not)
	if len(nm) != 0 {
		t.Fatalf("not(.item) matched %d, want 0", len(nm))
	}
}

func TestQuerySelectorHasAndSelectorList(t *testing.T) {
	doc, _, err := Load(`<html><body>
		<div class="card"><span class="flag"></span></div>
		<div class="card"></div>
	</body></html>`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	has := mustParse("div.card:has(.flag)")
	hm := doc.QuerySelectorAll(doc.Root, has)
	if len(hm) != 1 {
		t.Fatalf("has(.flag) matched %d, want 1", len(hm))
	}

	list := mustParse("span, div.card")
	lm := doc.QuerySelectorAll(doc.Root, list)
	if len(lm) != 3 {
		t.Fatalf("selector list matched %d, want 3", len(lm))
	}
}

func TestUnsupportedSelectorErrors(t *testing.T) {
	_, err := ParseSelectorList("div::before")
	if err == nil {
		t.Fatalf("expected error for pseudo-element syntax")
	}
}

func TestCollectFormData(t *testing.T) {
	doc, _, err := Load(`<html><body><form id="f">
		<input name="username" value="alice">
		<input type="checkbox" name="subscribe" value="yes" checked>
		<select name="color"><option value="red">Red</option><option value="blue" selected>Blue</option></select>
	</form></body></html>`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h, _ := doc.ByID("f")
	// Mark the checkbox as checked via the live property, as an action
	// handler would.
	for _, c := range doc.Descendants(h, false) {
		n := doc.Node(c)
		if n.TagName == "input" {
			if typ, _ := n.Attr("type"); typ == "checkbox" {
				n.Props.Checked = true
			}
		}
		if n.TagName == "option" {
			if _, ok := n.Attr("selected"); ok {
				n.Props.Selected = true
			}
		}
	}
	entries := doc.CollectFormData(h)
	want := map[string]string{"username": "alice", "subscribe": "yes", "color": "blue"}
	if len(entries) != len(want) {
		t.Fatalf("entries = %#v", entries)
	}
	for _, e := range entries {
		if want[e.Name] != e.Value {
			t.Fatalf("entry %s = %s, want %s", e.Name, e.Value, want[e.Name])
		}
	}
}
