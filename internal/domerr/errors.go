// Package domerr defines the closed error taxonomy shared by every core
// component (spec.md §7). Each type carries the structured fields the
// harness façade needs to report a useful diagnostic; none of them wrap a
// generic error library because the fields themselves (selector text,
// expected/actual literals, scheduler state at overflow) are the contract,
// not a message string.
package domerr

import "fmt"

// HtmlParse reports a load-time HTML structural failure (§4.1).
type HtmlParse struct {
	Message string
}

func (e *HtmlParse) Error() string { return "HtmlParse: " + e.Message }

// ScriptParse reports a load-time or listener-body JS parse failure (§4.3).
type ScriptParse struct {
	Message string
}

func (e *ScriptParse) Error() string { return "ScriptParse: " + e.Message }

// ScriptRuntime reports a runtime evaluation error inside the JS subset
// evaluator: TypeError-like conditions, unresolved identifiers, operators
// applied to the wrong kind of value, calling eval, or using a disallowed
// API.
type ScriptRuntime struct {
	Message string
}

func (e *ScriptRuntime) Error() string { return "ScriptRuntime: " + e.Message }

// SelectorNotFound reports that an action/assertion target selector
// matched no node.
type SelectorNotFound struct {
	Selector string
}

func (e *SelectorNotFound) Error() string {
	return fmt.Sprintf("SelectorNotFound: %s", e.Selector)
}

// UnsupportedSelector reports selector syntax outside the supported
// grammar subset (§4.2). Silent ignore is forbidden by spec; this type is
// how "fail loudly" is expressed.
type UnsupportedSelector struct {
	Selector string
}

func (e *UnsupportedSelector) Error() string {
	return fmt.Sprintf("UnsupportedSelector: %s", e.Selector)
}

// TypeMismatch reports an action attempted against the wrong element kind,
// e.g. set_checked on a text input.
type TypeMismatch struct {
	Selector string
	Expected string
	Actual   string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("TypeMismatch: selector=%s expected=%s actual=%s", e.Selector, e.Expected, e.Actual)
}

// AssertionFailed reports a failed assert_* call. Error() renders the
// exact §6.4 format, so callers that treat this as a plain error still see
// the full diagnostic.
type AssertionFailed struct {
	Kind     string
	Selector string
	Expected string
	Actual   string
	Snippet  string
}

func (e *AssertionFailed) Error() string {
	return fmt.Sprintf(
		"AssertionFailed: %s\n  selector : %s\n  expected : %s\n  actual   : %s\n  snippet  : %s",
		e.Kind, e.Selector, e.Expected, e.Actual, e.Snippet,
	)
}

// TimerStepLimitExceeded reports the scheduler's runaway-loop guard
// tripping during flush/advance_time (§4.5).
type TimerStepLimitExceeded struct {
	NowMs          int64
	DueLimit       *int64 // nil for flush; set for advance_time's target
	PendingTasks   int
	NextTaskSummary string
}

func (e *TimerStepLimitExceeded) Error() string {
	due := "none"
	if e.DueLimit != nil {
		due = fmt.Sprintf("%d", *e.DueLimit)
	}
	return fmt.Sprintf(
		"TimerStepLimitExceeded: now_ms=%d due_limit=%s pending_tasks=%d next_task=%s",
		e.NowMs, due, e.PendingTasks, e.NextTaskSummary,
	)
}
