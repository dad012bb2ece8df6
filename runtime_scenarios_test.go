package domtest

import (
	"strings"
	"testing"
)

func newTestRuntime(t *testing.T, html string) *Runtime {
	t.Helper()
	r, err := NewRuntime(html, RuntimeConfig{})
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return r
}

// E1 — basic form: typing a name, checking agree, then clicking go should
// compose the listener's own read of .value/.checked into the output node.
func TestScenarioBasicForm(t *testing.T) {
	r := newTestRuntime(t, `
<input id=name><input id=agree type=checkbox>
<button id=go>Send</button><p id=out></p>
<script>document.getElementById('go').addEventListener('click',()=>{
  const n=document.getElementById('name').value;
  const a=document.getElementById('agree').checked;
  document.getElementById('out').textContent=a?`+"`OK:${n}`"+`:'NG';});</script>
`)
	if err := r.TypeText("#name", "Taro"); err != nil {
		t.Fatalf("type_text: %v", err)
	}
	if err := r.SetChecked("#agree", true); err != nil {
		t.Fatalf("set_checked: %v", err)
	}
	if err := r.Click("#go"); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := r.AssertText("#out", "OK:Taro"); err != nil {
		t.Fatalf("assert_text: %v", err)
	}
}

// E2 — capture/bubble order: a, b and c each log a capture and a bubble
// call, and a last click listener on c writes the joined log into #a; the
// expected text lists every listener call in dispatch order.
func TestScenarioCaptureBubbleOrder(t *testing.T) {
	r := newTestRuntime(t, `
<div id=a><div id=b><button id=c>x</button></div></div>
<script>const log=[];
['a','b','c'].forEach(id=>{
 document.getElementById(id).addEventListener('click',()=>log.push(id+':b'));
 document.getElementById(id).addEventListener('click',()=>log.push(id+':c'),true);});
document.getElementById('c').addEventListener('click',()=>document.getElementById('a').textContent=log.join(','));
</script>
`)
	if err := r.Click("#c"); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := r.AssertText("#a", "a:c,b:c,c:c,c:b,b:b,a:b"); err != nil {
		t.Fatalf("assert_text: %v", err)
	}
}

// E4 — deterministic timers: two independently scheduled timeouts fire in
// due-time order across two separate AdvanceTime calls.
func TestScenarioDeterministicTimers(t *testing.T) {
	r := newTestRuntime(t, `
<p id=o></p>
<script>setTimeout(()=>document.getElementById('o').textContent='a',10);
setTimeout(()=>document.getElementById('o').textContent+='b',20);</script>
`)
	if err := r.AdvanceTime(15); err != nil {
		t.Fatalf("advance_time(15): %v", err)
	}
	if err := r.AssertText("#o", "a"); err != nil {
		t.Fatalf("assert_text after +15ms: %v", err)
	}
	if err := r.AdvanceTime(5); err != nil {
		t.Fatalf("advance_time(5): %v", err)
	}
	if err := r.AssertText("#o", "ab"); err != nil {
		t.Fatalf("assert_text after +5ms: %v", err)
	}
}

// E5 — checkbox default action: clicking a bare checkbox (no listeners)
// flips its checked state via the dispatcher's own default action.
func TestScenarioCheckboxDefaultAction(t *testing.T) {
	r := newTestRuntime(t, `<input id=c type=checkbox>`)
	if err := r.Click("#c"); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := r.AssertChecked("#c", true); err != nil {
		t.Fatalf("assert_checked: %v", err)
	}
}

// E5 (listener-observation variant) — a single listener registered for
// click/input/change observes exactly three events, in that order, when a
// checkbox is clicked.
func TestScenarioCheckboxDefaultActionEventOrder(t *testing.T) {
	r := newTestRuntime(t, `
<input id=c type=checkbox>
<script>
window.__order = [];
['click','input','change'].forEach(type => {
  document.getElementById('c').addEventListener(type, () => window.__order.push(type));
});
</script>
`)
	if err := r.Click("#c"); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := r.RunScript(`console.log(window.__order.join(','));`); err != nil {
		t.Fatalf("run_script: %v", err)
	}
	log := r.ConsoleLog()
	if len(log) == 0 || log[len(log)-1].Message != "click,input,change" {
		t.Fatalf("expected click,input,change order, got %+v", log)
	}
}

// E6 — required-field submission block: clicking the submit button on a
// form with an unmet required field focuses the invalid control instead of
// dispatching submit.
func TestScenarioRequiredFieldBlocksSubmit(t *testing.T) {
	r := newTestRuntime(t, `
<form id=f><input name=x required><button id=s>go</button></form>
<script>
window.__submitted = false;
document.getElementById('f').addEventListener('submit', () => { window.__submitted = true; });
</script>
`)
	if err := r.Click("#s"); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := r.RunScript(`console.log(String(window.__submitted));`); err != nil {
		t.Fatalf("run_script: %v", err)
	}
	log := r.ConsoleLog()
	if len(log) == 0 || log[len(log)-1].Message != "false" {
		t.Fatalf("expected submit to be blocked, console log: %+v", log)
	}
}

// Universal property 6/7: splitting an advance into two calls runs the same
// timers in the same order as one combined call, and a flush on already
// empty queues is a no-op.
func TestPropertyAdvanceSplitMatchesCombined(t *testing.T) {
	html := `<p id=o></p>
<script>
window.__log = [];
setTimeout(()=>window.__log.push('t10'),10);
setTimeout(()=>window.__log.push('t20'),20);
setTimeout(()=>window.__log.push('t25'),25);
</script>`

	split := newTestRuntime(t, html)
	if err := split.AdvanceTime(12); err != nil {
		t.Fatalf("advance 12: %v", err)
	}
	if err := split.AdvanceTime(15); err != nil {
		t.Fatalf("advance 15: %v", err)
	}
	if err := split.RunScript(`console.log(window.__log.join(','));`); err != nil {
		t.Fatalf("run_script: %v", err)
	}
	splitLog := split.ConsoleLog()

	combined := newTestRuntime(t, html)
	if err := combined.AdvanceTime(27); err != nil {
		t.Fatalf("advance 27: %v", err)
	}
	if err := combined.RunScript(`console.log(window.__log.join(','));`); err != nil {
		t.Fatalf("run_script: %v", err)
	}
	combinedLog := combined.ConsoleLog()

	if splitLog[len(splitLog)-1].Message != combinedLog[len(combinedLog)-1].Message {
		t.Fatalf("split/combined advance mismatch: %q vs %q",
			splitLog[len(splitLog)-1].Message, combinedLog[len(combinedLog)-1].Message)
	}
	if split.NowMs() != combined.NowMs() {
		t.Fatalf("now_ms mismatch: %d vs %d", split.NowMs(), combined.NowMs())
	}

	if err := combined.Flush(); err != nil {
		t.Fatalf("flush on empty queues: %v", err)
	}
	if combined.NowMs() != split.NowMs() {
		t.Fatalf("flush on empty queues moved the clock")
	}
}

// Universal property 4: stopImmediatePropagation on the k-th listener for a
// node stops the remaining listeners on that node and every later phase.
func TestPropertyStopImmediatePropagation(t *testing.T) {
	r := newTestRuntime(t, `
<div id=a><button id=b>x</button></div>
<script>
window.__calls = [];
document.getElementById('b').addEventListener('click', (e) => { window.__calls.push(1); e.stopImmediatePropagation(); });
document.getElementById('b').addEventListener('click', () => { window.__calls.push(2); });
document.getElementById('a').addEventListener('click', () => { window.__calls.push(3); });
</script>
`)
	if err := r.Click("#b"); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := r.RunScript(`console.log(window.__calls.join(','));`); err != nil {
		t.Fatalf("run_script: %v", err)
	}
	log := r.ConsoleLog()
	if len(log) == 0 || log[len(log)-1].Message != "1" {
		t.Fatalf("expected only listener 1 to run, got %+v", log)
	}
}

// AssertText against a node whose text differs from the expected value
// surfaces the exact §6.4 failure shape.
func TestAssertionFailureFormat(t *testing.T) {
	r := newTestRuntime(t, `<p id=out>hello</p>`)
	err := r.AssertText("#out", "goodbye")
	if err == nil {
		t.Fatal("expected assertion failure")
	}
	af, ok := err.(*AssertionFailed)
	if !ok {
		t.Fatalf("expected *AssertionFailed, got %T", err)
	}
	msg := af.Error()
	for _, want := range []string{"AssertionFailed: assert_text", "selector :", "expected :", "actual   :", "snippet  :"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("assertion message missing %q:\n%s", want, msg)
		}
	}
}

// Trace output carries the §6.3 event line grammar (per-phase and done
// lines) once a scenario has run a click.
func TestTraceLineGrammar(t *testing.T) {
	r := newTestRuntime(t, `<input id=c type=checkbox>`)
	if err := r.Click("#c"); err != nil {
		t.Fatalf("click: %v", err)
	}
	lines := r.TakeTraceLogs()
	var sawEvent, sawDone bool
	for _, l := range lines {
		if strings.HasPrefix(l, "[event] click target=") {
			sawEvent = true
		}
		if strings.HasPrefix(l, "[event] done click target=") {
			sawDone = true
		}
	}
	if !sawEvent {
		t.Fatalf("expected a per-phase click trace line, got:\n%s", strings.Join(lines, "\n"))
	}
	if !sawDone {
		t.Fatalf("expected a terminal done click trace line, got:\n%s", strings.Join(lines, "\n"))
	}
	if len(r.Trace().Entries()) != 0 {
		t.Fatalf("take_trace_logs should have cleared the buffer")
	}
}
