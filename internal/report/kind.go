package report

import (
	"fmt"
)

// Report kind names.
// Use these instead of string literals for compile-time safety.
const (
	PatientName   = "patient"
	DoctorName    = "doctor"
	FirmName      = "firm"
	SentimentName = "sentiment"
	IntentName    = "intent"
)

// ---------------------------------------------------------------------------
// Kind type - represents a validated report kind
// ---------------------------------------------------------------------------

// Kind represents a validated report kind.
// Zero value is invalid: BuildPrompt rejects it and the dispatcher turns it
// into an invalid-kind report. Use ParseKind for user input, or the
// pre-parsed values below.
type Kind struct {
	name string
}

// Pre-parsed report kinds for use in code.
var (
	Patient   = Kind{name: PatientName}
	Doctor    = Kind{name: DoctorName}
	Firm      = Kind{name: FirmName}
	Sentiment = Kind{name: SentimentName}
	Intent    = Kind{name: IntentName}
)

// kindOrder is the canonical order used by Kinds, batch generation and help text.
var kindOrder = []Kind{Patient, Doctor, Firm, Sentiment, Intent}

// titles holds the display heading of each kind.
var titles = map[string]string{
	PatientName:   "Patient Report",
	DoctorName:    "Doctor Report",
	FirmName:      "Firm Report",
	SentimentName: "Sentiment & Tone Analysis",
	IntentName:    "Keyword & Intent Detection",
}

// ParseKind validates and parses a report kind name.
// Matching is exact: case variants and surrounding spaces are rejected.
// Returns an error wrapping ErrUnknownKind if the name is not recognized.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return Kind{}, fmt.Errorf("report kind cannot be empty: %w", ErrUnknownKind)
	}
	if _, ok := titles[s]; !ok {
		return Kind{}, fmt.Errorf("unknown report kind %q (valid: %v): %w", s, Names(), ErrUnknownKind)
	}
	return Kind{name: s}, nil
}

// MustParseKind parses a report kind, panicking if invalid.
// Use only for constants and tests.
func MustParseKind(s string) Kind {
	k, err := ParseKind(s)
	if err != nil {
		panic(err)
	}
	return k
}

// String returns the kind name, or "" for the zero value.
func (k Kind) String() string {
	return k.name
}

// IsZero reports whether k is the zero value.
func (k Kind) IsZero() bool {
	return k.name == ""
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := titles[k.name]
	return ok
}

// Title returns the display heading, e.g. "Patient Report".
// Returns "" for an invalid kind.
func (k Kind) Title() string {
	return titles[k.name]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Kinds returns all report kinds in canonical order
// (patient, doctor, firm, sentiment, intent). The slice is a copy.
func Kinds() []Kind {
	result := make([]Kind, len(kindOrder))
	copy(result, kindOrder)
	return result
}

// Names returns the names of all report kinds in canonical order.
func Names() []string {
	result := make([]string, len(kindOrder))
	for i, k := range kindOrder {
		result[i] = k.name
	}
	return result
}
