package dispatch

import (
	"fmt"

	"github.com/alnah/medreport/internal/report"
)

// Readable texts carried by sentinel reports.
const (
	InvalidKindText = "Invalid report type"
	UnavailableText = "Could not generate report, try again later."
)

// Status is the outcome of one report request.
type Status int

const (
	// StatusOK means Text holds a generated (or cached) report.
	StatusOK Status = iota
	// StatusInvalidKind means the requested kind is not one of the five.
	StatusInvalidKind
	// StatusUnavailable means every model tier failed.
	StatusUnavailable
)

var statusNames = [...]string{
	StatusOK:          "ok",
	StatusInvalidKind: "invalid_kind",
	StatusUnavailable: "unavailable",
}

// String returns the status name used in logs, metrics and encoded output.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown report status %q", b)
}

// Report is the result of one report request. Sentinel outcomes are values,
// not errors: Text then holds the readable sentinel message and Err the cause.
type Report struct {
	// Kind is the zero value when the request named an unknown kind.
	Kind report.Kind `json:"-" yaml:"-"`
	// Name is the requested kind name, as given by the caller.
	Name   string `json:"kind" yaml:"kind"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Text   string `json:"text" yaml:"text"`
	Model  string `json:"model,omitempty" yaml:"model,omitempty"`
	Status Status `json:"status" yaml:"status"`
	Cached bool   `json:"cached" yaml:"cached"`
	Err    error  `json:"-" yaml:"-"`
}

// OK reports whether r holds generated text.
func (r Report) OK() bool {
	return r.Status == StatusOK
}

// ErrorText returns Err's message, or "" when there is no cause.
func (r Report) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func invalidKindReport(name string, err error) Report {
	return Report{
		Name:   name,
		Text:   InvalidKindText,
		Status: StatusInvalidKind,
		Err:    err,
	}
}

func unavailableReport(kind report.Kind, err error) Report {
	return Report{
		Kind:   kind,
		Name:   kind.String(),
		Title:  kind.Title(),
		Text:   UnavailableText,
		Status: StatusUnavailable,
		Err:    err,
	}
}

// Summary counts report outcomes in a batch.
type Summary struct {
	OK          int
	InvalidKind int
	Unavailable int
	Cached      int
}

// Summarize counts the outcomes in reports.
func Summarize(reports []Report) Summary {
	var s Summary
	for _, r := range reports {
		switch r.Status {
		case StatusOK:
			s.OK++
		case StatusInvalidKind:
			s.InvalidKind++
		case StatusUnavailable:
			s.Unavailable++
		}
		if r.Cached {
			s.Cached++
		}
	}
	return s
}
