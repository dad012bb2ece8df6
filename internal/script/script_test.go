package script

import (
	"testing"

	"github.com/domtestrun/domtest/internal/dom"
	"github.com/domtestrun/domtest/internal/events"
	"github.com/domtestrun/domtest/internal/prng"
	"github.com/domtestrun/domtest/internal/scheduler"
)

func newTestInterp(t *testing.T) *Interp {
	t.Helper()
	doc, _, err := dom.Load(`<!doctype html><html><body><div id="root"></div></body></html>`)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	disp := events.NewDispatcher(doc)
	sched := scheduler.New()
	rng := prng.New(42)
	return NewInterp(doc, disp, sched, rng)
}

func runScript(t *testing.T, it *Interp, src string) {
	t.Helper()
	if err := it.Run(src); err != nil {
		t.Fatalf("script error: %v\nsrc:\n%s", err, src)
	}
}

func TestArithmeticAndStringConcat(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		var a = 2 + 3 * 4;
		var s = "n=" + a;
		console.log(s);
	`)
	if len(it.ConsoleLog) != 1 || it.ConsoleLog[0].Message != "n=14" {
		t.Fatalf("unexpected console log: %+v", it.ConsoleLog)
	}
}

func TestClosuresAndVarHoisting(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		function makeCounter() {
			var count = 0;
			return function() {
				count = count + 1;
				return count;
			};
		}
		var counter = makeCounter();
		var results = [counter(), counter(), counter()];
		console.log(results.join(","));
	`)
	if it.ConsoleLog[len(it.ConsoleLog)-1].Message != "1,2,3" {
		t.Fatalf("unexpected counter results: %+v", it.ConsoleLog)
	}
}

func TestControlFlowAndArrayMethods(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		var nums = [1, 2, 3, 4, 5, 6];
		var evens = nums.filter(function(n) { return n % 2 === 0; });
		var doubled = evens.map(function(n) { return n * 2; });
		var total = doubled.reduce(function(acc, n) { return acc + n; }, 0);
		console.log(total);

		var out = [];
		for (var i = 0; i < 3; i++) {
			if (i === 1) continue;
			out.push(i);
		}
		console.log(out.join(","));
	`)
	if it.ConsoleLog[0].Message != "24" {
		t.Fatalf("expected total 24, got %+v", it.ConsoleLog)
	}
	if it.ConsoleLog[1].Message != "0,2" {
		t.Fatalf("expected '0,2', got %+v", it.ConsoleLog)
	}
}

func TestTryCatchFinally(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		var log = [];
		try {
			log.push("try");
			throw "boom";
		} catch (e) {
			log.push("catch:" + e);
		} finally {
			log.push("finally");
		}
		console.log(log.join("|"));
	`)
	if it.ConsoleLog[0].Message != "try|catch:boom|finally" {
		t.Fatalf("unexpected trace: %+v", it.ConsoleLog)
	}
}

func TestMapAndSetBuiltins(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		var m = new Map();
		m.set("a", 1);
		m.set("b", 2);
		console.log(m.get("a") + m.get("b"));
		console.log(m.size);

		var s = new Set([1, 2, 2, 3]);
		console.log(s.size);
	`)
	if it.ConsoleLog[0].Message != "3" {
		t.Fatalf("unexpected map sum: %+v", it.ConsoleLog)
	}
	if it.ConsoleLog[1].Message != "2" {
		t.Fatalf("unexpected map size: %+v", it.ConsoleLog)
	}
	if it.ConsoleLog[2].Message != "3" {
		t.Fatalf("unexpected set size: %+v", it.ConsoleLog)
	}
}

func TestPromiseChainingThroughMicrotasks(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		var log = [];
		Promise.resolve(1)
			.then(function(v) { log.push("then1:" + v); return v + 1; })
			.then(function(v) { log.push("then2:" + v); })
			.catch(function(e) { log.push("catch:" + e); });
		console.log(log.join("|"));
		globalThis.__log = log;
	`)
	if err := it.Sched.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	logVal, ok := it.Global.Get("globalThis")
	if !ok {
		t.Fatalf("globalThis missing")
	}
	obj := logVal.(*Object)
	arrVal, _ := obj.Get("__log")
	arr := arrVal.(*Array)
	joined := ""
	for i, v := range arr.Elements {
		if i > 0 {
			joined += "|"
		}
		joined += ToString(v)
	}
	if joined != "then1:1|then2:2" {
		t.Fatalf("unexpected promise chain result: %q", joined)
	}
}

func TestDateUsesSchedulerClock(t *testing.T) {
	it := newTestInterp(t)
	if err := it.Sched.AdvanceTime(5000); err != nil {
		t.Fatalf("advance: %v", err)
	}
	runScript(t, it, `
		var d = new Date();
		console.log(d.getTime());
	`)
	if it.ConsoleLog[0].Message != "5000" {
		t.Fatalf("expected date to reflect scheduler clock, got %+v", it.ConsoleLog)
	}
}

func TestTimersFireInOrderOnFlush(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		var log = [];
		setTimeout(function() { log.push("a"); }, 10);
		setTimeout(function() { log.push("b"); }, 5);
		globalThis.__log = log;
	`)
	if err := it.Sched.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	logVal, _ := it.Global.Get("globalThis")
	arrVal, _ := logVal.(*Object).Get("__log")
	arr := arrVal.(*Array)
	if len(arr.Elements) != 2 || ToString(arr.Elements[0]) != "b" || ToString(arr.Elements[1]) != "a" {
		t.Fatalf("unexpected timer order: %+v", arr.Elements)
	}
}

func TestDOMBridgeQueryAndClassList(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		var root = document.getElementById("root");
		var child = document.createElement("span");
		child.setAttribute("class", "a b");
		root.appendChild(child);
		child.classList.add("c");
		child.classList.remove("a");
		console.log(child.getAttribute("class"));

		var found = document.querySelector("#root span.c");
		console.log(found === child);
	`)
	if it.ConsoleLog[0].Message != "b c" {
		t.Fatalf("unexpected class list result: %+v", it.ConsoleLog)
	}
	if it.ConsoleLog[1].Message != "true" {
		t.Fatalf("expected querySelector to find the appended child: %+v", it.ConsoleLog)
	}
}

func TestEventListenerDefaultPrevented(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		var root = document.getElementById("root");
		var box = document.createElement("input");
		box.setAttribute("type", "checkbox");
		root.appendChild(box);
		var prevented = false;
		box.addEventListener("click", function(e) {
			e.preventDefault();
			prevented = true;
		});
		box.click();
		console.log(prevented);
		console.log(box.checked);
	`)
	if it.ConsoleLog[0].Message != "true" {
		t.Fatalf("expected listener to run: %+v", it.ConsoleLog)
	}
	if it.ConsoleLog[1].Message != "false" {
		t.Fatalf("expected preventDefault to suppress the checkbox toggle default action: %+v", it.ConsoleLog)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		var obj = { a: 1, b: [2, 3], c: "x" };
		var s = JSON.stringify(obj);
		var back = JSON.parse(s);
		console.log(back.a + back.b[0] + back.b[1]);
		console.log(back.c);
	`)
	if it.ConsoleLog[0].Message != "6" {
		t.Fatalf("unexpected JSON round trip sum: %+v", it.ConsoleLog)
	}
	if it.ConsoleLog[1].Message != "x" {
		t.Fatalf("unexpected JSON round trip string: %+v", it.ConsoleLog)
	}
}

func TestTemplateLiteralsAndArrowFunctions(t *testing.T) {
	it := newTestInterp(t)
	runScript(t, it, `
		var double = x => x * 2;
		var name = "world";
		console.log(` + "`hello ${name}, ${double(3)}`" + `);
	`)
	if it.ConsoleLog[0].Message != "hello world, 6" {
		t.Fatalf("unexpected template literal result: %+v", it.ConsoleLog)
	}
}

func TestAwaitRaisesScriptRuntime(t *testing.T) {
	it := newTestInterp(t)
	err := it.Run(`
		var x = await Promise.resolve(1);
	`)
	if err == nil {
		t.Fatalf("expected await to raise an error")
	}
}
