package domtest

import "github.com/domtestrun/domtest/internal/domerr"

// Type aliases re-exporting internal/domerr's closed error taxonomy so
// callers can type-switch on domtest.AssertionFailed etc. without reaching
// into the internal package directly.

type HtmlParse = domerr.HtmlParse
type ScriptParse = domerr.ScriptParse
type ScriptRuntime = domerr.ScriptRuntime
type SelectorNotFound = domerr.SelectorNotFound
type UnsupportedSelector = domerr.UnsupportedSelector
type TypeMismatch = domerr.TypeMismatch
type AssertionFailed = domerr.AssertionFailed
type TimerStepLimitExceeded = domerr.TimerStepLimitExceeded
