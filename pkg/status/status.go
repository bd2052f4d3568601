// Package status defines the wire protocol shared by every bar-pulse
// module: the Result a provider produces per target, the Record the bar
// host consumes, and the Emitter that writes records to stdout one JSON
// object per line.
package status

import "time"

// Class is the styling hook the bar host maps to CSS. The set is fixed;
// hosts key their styling off these exact strings.
type Class string

const (
	ClassSuccess  Class = "success"
	ClassGood     Class = "good"
	ClassWarning  Class = "warning"
	ClassCritical Class = "critical"
	ClassError    Class = "error"
	ClassLoading  Class = "loading"
)

// Record is one line of bar output. It is immutable once built; renderers
// return a fresh Record on every call.
type Record struct {
	Text    string `json:"text"`
	Class   Class  `json:"class"`
	Tooltip string `json:"tooltip,omitempty"`
}

// Result is the outcome of one fetch for one target: either a payload
// stamped with its update time, or an error message. It is never
// partially populated; use the constructors.
type Result[T any] struct {
	Target    string
	Payload   T
	Err       string
	UpdatedAt time.Time
}

// Success builds a successful Result stamped with the current time.
func Success[T any](target string, payload T) Result[T] {
	return Result[T]{
		Target:    target,
		Payload:   payload,
		UpdatedAt: time.Now(),
	}
}

// Failure builds a failed Result carrying only an error message.
func Failure[T any](target, msg string) Result[T] {
	return Result[T]{Target: target, Err: msg}
}

// OK reports whether the result carries a payload rather than an error.
func (r Result[T]) OK() bool {
	return r.Err == ""
}
