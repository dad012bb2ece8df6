package domtest

import (
	"fmt"

	"github.com/google/uuid"
	whatwgurl "github.com/nlnwa/whatwg-url/url"

	"github.com/domtestrun/domtest/internal/dom"
	"github.com/domtestrun/domtest/internal/script"
)

// FetchCall records one fetch() invocation for later inspection by a test.
type FetchCall struct {
	URL    string
	Method string
	Body   string
}

type fetchResponse struct {
	Status int
	Body   string
}

// NavigationRecord is one location change, whether triggered by an anchor
// click, location.assign/replace, or location.reload.
type NavigationRecord struct {
	Kind string // "assign", "replace", "reload", "anchor"
	From string
	To   string
}

// DownloadArtifact is emitted when an <a download> anchor with an
// object-URL href is clicked.
type DownloadArtifact struct {
	ID       string
	Filename string
	MimeType string
	Bytes    int
}

// FileMeta is the metadata a seeded file-input mock reports for one
// selected file.
type FileMeta struct {
	Name string
	Size int
	Type string
}

var urlParser = whatwgurl.NewParser()

// mockState holds every collaborator's seeded/recorded data: the fetch
// URL->response map plus its call log, the clipboard's single string,
// dialog response queues, the matchMedia query->bool map, navigation
// history, and pending download artifacts. One mockState backs one
// Runtime, mirroring the teacher's per-request state bag rather than a
// shared global (requestState in the teacher's runtime.go).
type mockState struct {
	fetchResponses map[string]fetchResponse
	fetchCalls     []FetchCall

	clipboard string

	alertLog     []string
	confirmQueue []bool
	confirmDefault bool
	promptQueue  []string
	promptDefault  string
	promptDefaultOK bool

	matchMediaQueries map[string]bool
	matchMediaDefault bool

	navigations []NavigationRecord
	pageMocks   map[string]string // URL -> replacement HTML
	currentURL  string

	downloads []DownloadArtifact

	fileInputs map[string][]FileMeta // selector -> seeded files
}

func newMockState() *mockState {
	return &mockState{
		fetchResponses:    make(map[string]fetchResponse),
		matchMediaQueries: make(map[string]bool),
		pageMocks:         make(map[string]string),
		fileInputs:        make(map[string][]FileMeta),
		currentURL:        "https://example.test/",
	}
}

// MockFetch seeds the response returned for a given URL; an unseeded URL
// yields a 404 with an empty body rather than an error, matching a real
// fetch's own "404 is still a successful fetch" behavior.
func (r *Runtime) MockFetch(url string, status int, body string) {
	r.mocks.fetchResponses[url] = fetchResponse{Status: status, Body: body}
}

// FetchCalls returns every fetch() call recorded so far, in call order.
func (r *Runtime) FetchCalls() []FetchCall {
	return append([]FetchCall(nil), r.mocks.fetchCalls...)
}

// SetClipboardText seeds the clipboard's single string.
func (r *Runtime) SetClipboardText(s string) { r.mocks.clipboard = s }

// ClipboardText returns the clipboard's current string.
func (r *Runtime) ClipboardText() string { return r.mocks.clipboard }

// QueueConfirm appends a seeded response consumed FIFO by the next
// confirm() call; once the queue is empty, confirmDefault answers instead.
func (r *Runtime) QueueConfirm(answer bool) {
	r.mocks.confirmQueue = append(r.mocks.confirmQueue, answer)
}

// SetConfirmDefault sets the answer confirm() gives once the queue drains.
func (r *Runtime) SetConfirmDefault(answer bool) { r.mocks.confirmDefault = answer }

// QueuePrompt appends a seeded response consumed FIFO by the next prompt()
// call.
func (r *Runtime) QueuePrompt(answer string) {
	r.mocks.promptQueue = append(r.mocks.promptQueue, answer)
}

// SetPromptDefault sets the (value, ok) prompt() returns once its queue
// drains; ok=false mirrors the user dismissing the dialog (prompt()
// returning null).
func (r *Runtime) SetPromptDefault(value string, ok bool) {
	r.mocks.promptDefault = value
	r.mocks.promptDefaultOK = ok
}

// AlertLog returns every alert() message recorded so far, in call order,
// together with confirm() and prompt() messages, which are recorded with a
// "confirm: " or "prompt: " prefix.
func (r *Runtime) AlertLog() []string {
	return append([]string(nil), r.mocks.alertLog...)
}

// SetMatchMedia seeds the boolean a given media query resolves to.
func (r *Runtime) SetMatchMedia(query string, matches bool) {
	r.mocks.matchMediaQueries[query] = matches
}

// SetMatchMediaDefault sets the fallback for queries with no explicit
// seed.
func (r *Runtime) SetMatchMediaDefault(matches bool) { r.mocks.matchMediaDefault = matches }

// Navigations returns every recorded navigation, in order.
func (r *Runtime) Navigations() []NavigationRecord {
	return append([]NavigationRecord(nil), r.mocks.navigations...)
}

// MockPage registers a replacement document for url: when navigation
// targets url, the runtime's document is swapped for html instead of
// merely recording the navigation. Loading the replacement runs its own
// inline scripts exactly like NewRuntime does.
func (r *Runtime) MockPage(url, html string) {
	r.mocks.pageMocks[url] = html
}

// Downloads returns every download artifact emitted so far.
func (r *Runtime) Downloads() []DownloadArtifact {
	return append([]DownloadArtifact(nil), r.mocks.downloads...)
}

// SeedFileInput stores file metadata under a file-input selector. A later
// SelectFiles call on the same selector replaces the entry with its own
// files argument (see actions.go).
func (r *Runtime) SeedFileInput(selector string, files []FileMeta) {
	r.mocks.fileInputs[selector] = files
}

func (r *Runtime) buildHooks() script.Hooks {
	return script.Hooks{
		Fetch: func(url, method, body string) (int, string) {
			r.mocks.fetchCalls = append(r.mocks.fetchCalls, FetchCall{URL: url, Method: method, Body: body})
			resp, ok := r.mocks.fetchResponses[url]
			if !ok {
				return 404, ""
			}
			return resp.Status, resp.Body
		},
		ClipboardRead: func() string { return r.mocks.clipboard },
		ClipboardWrite: func(s string) { r.mocks.clipboard = s },
		Alert: func(message string) {
			r.mocks.alertLog = append(r.mocks.alertLog, message)
		},
		Confirm: func(message string) bool {
			r.mocks.alertLog = append(r.mocks.alertLog, "confirm: "+message)
			if len(r.mocks.confirmQueue) > 0 {
				next := r.mocks.confirmQueue[0]
				r.mocks.confirmQueue = r.mocks.confirmQueue[1:]
				return next
			}
			return r.mocks.confirmDefault
		},
		Prompt: func(message, def string) (string, bool) {
			r.mocks.alertLog = append(r.mocks.alertLog, "prompt: "+message)
			if len(r.mocks.promptQueue) > 0 {
				next := r.mocks.promptQueue[0]
				r.mocks.promptQueue = r.mocks.promptQueue[1:]
				return next, true
			}
			if r.mocks.promptDefaultOK {
				return r.mocks.promptDefault, true
			}
			return def, false
		},
		MatchMedia: func(query string) (bool, string) {
			if v, ok := r.mocks.matchMediaQueries[query]; ok {
				return v, query
			}
			return r.mocks.matchMediaDefault, query
		},
		LocationAssign:  func(href string) { r.navigate("assign", href) },
		LocationReplace: func(href string) { r.navigate("replace", href) },
		LocationReload: func() {
			r.navigate("reload", r.mocks.currentURL)
		},
	}
}

// recordNavigation is the anchor/area default-action sink wired to the
// dispatcher in NewRuntime.
func (r *Runtime) recordNavigation(href string) {
	r.navigate("anchor", href)
}

func (r *Runtime) navigate(kind, href string) {
	resolved := r.resolveURL(href)
	rec := NavigationRecord{Kind: kind, From: r.mocks.currentURL, To: resolved}
	r.mocks.navigations = append(r.mocks.navigations, rec)
	r.trace.record(r.Sched.NowMs(), "event", fmt.Sprintf("navigate kind=%s from=%s to=%s", kind, rec.From, rec.To))
	r.mocks.currentURL = resolved
	r.Interp.SetLocationHref(resolved)

	if html, ok := r.mocks.pageMocks[resolved]; ok {
		r.swapDocument(html)
	}
}

func (r *Runtime) resolveURL(href string) string {
	u, err := urlParser.ParseRef(r.mocks.currentURL, href)
	if err != nil {
		return href
	}
	return u.Href(false)
}

// recordDownload is the <a download> default-action sink wired to the
// dispatcher in NewRuntime. source (the anchor that triggered the
// download) is not used; the artifact id is drawn from the
// runtime's seeded random stream so two identically-seeded runs produce
// identical ids.
func (r *Runtime) recordDownload(source dom.Handle, href, filename string) {
	_ = source
	id, err := uuid.NewRandomFromReader(r.rng)
	idStr := id.String()
	if err != nil {
		idStr = filename
	}
	r.mocks.downloads = append(r.mocks.downloads, DownloadArtifact{
		ID:       idStr,
		Filename: filename,
		MimeType: "application/octet-stream",
		Bytes:    0,
	})
}
