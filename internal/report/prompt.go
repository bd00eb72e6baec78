package report

import (
	"fmt"
	"strings"

	"github.com/alnah/medreport/internal/lang"
)

// languageMode tells BuildPrompt which language instruction a kind gets.
type languageMode int

const (
	// sourceLanguage asks for the language of the conversation itself.
	sourceLanguage languageMode = iota
	// reportingLanguage asks for the configured reporting language.
	reportingLanguage
	// fixedReportingLanguage asks for the reporting language even when the
	// conversation is in another one.
	fixedReportingLanguage
)

// promptSpec holds the instruction body and language mode of a kind.
type promptSpec struct {
	body string
	mode languageMode
}

// prompts maps kind names to their instruction text.
// Prompts are versioned with the binary; update requires rebuild.
var prompts = map[string]promptSpec{
	PatientName:   {body: patientPrompt, mode: sourceLanguage},
	DoctorName:    {body: doctorPrompt, mode: reportingLanguage},
	FirmName:      {body: firmPrompt, mode: reportingLanguage},
	SentimentName: {body: sentimentPrompt, mode: fixedReportingLanguage},
	IntentName:    {body: intentPrompt, mode: reportingLanguage},
}

// Delimiters around the embedded transcript.
const (
	transcriptOpen  = "Conversation:\n\"\"\"\n"
	transcriptClose = "\n\"\"\""
)

// promptConfig holds BuildPrompt options.
type promptConfig struct {
	reportLang lang.Language
}

// PromptOption configures BuildPrompt.
type PromptOption func(*promptConfig)

// WithReportLanguage sets the reporting language used by every kind except
// patient. Zero value keeps the default (English).
func WithReportLanguage(l lang.Language) PromptOption {
	return func(c *promptConfig) {
		if !l.IsZero() {
			c.reportLang = l
		}
	}
}

// BuildPrompt returns the instruction text for the given transcript and kind.
// The transcript is embedded verbatim exactly once, without trimming.
// Output is deterministic for identical inputs and options.
// Returns an error wrapping ErrUnknownKind if kind is not a valid kind.
func BuildPrompt(transcript string, kind Kind, opts ...PromptOption) (string, error) {
	tmpl, ok := prompts[kind.name]
	if !ok {
		return "", fmt.Errorf("cannot build prompt for kind %q: %w", kind.name, ErrUnknownKind)
	}

	cfg := promptConfig{reportLang: lang.English}
	for _, opt := range opts {
		opt(&cfg)
	}

	var b strings.Builder
	b.Grow(len(tmpl.body) + len(transcript) + 128)
	b.WriteString(tmpl.body)
	b.WriteString("\n\n")
	b.WriteString(languageInstruction(tmpl.mode, cfg.reportLang))
	b.WriteString("\n\n")
	b.WriteString(transcriptOpen)
	b.WriteString(transcript)
	b.WriteString(transcriptClose)
	return b.String(), nil
}

// languageInstruction returns the output-language line for a kind.
func languageInstruction(mode languageMode, reportLang lang.Language) string {
	switch mode {
	case sourceLanguage:
		return "Write the report in the same language as the conversation."
	case fixedReportingLanguage:
		return fmt.Sprintf("Write the report in %s, even if the conversation is in another language.",
			reportLang.DisplayName())
	default:
		return fmt.Sprintf("Write the report in %s.", reportLang.DisplayName())
	}
}

// Prompt templates in English.
// Each one frames a role and lists what the report must contain.

const patientPrompt = `You are a helpful medical assistant. Read the conversation between a doctor and a patient below and write a short, clear report for the patient.

The report must include:
- The doctor's name (write "Not mentioned" if it is not in the conversation)
- Every medicine prescribed, with its dosage and how to take it
- Any additional advice the doctor gave (diet, rest, tests, follow-up visits)

Use simple words. Do not add medicines or advice that are not in the conversation.`

const doctorPrompt = `You are a medical-record assistant. Read the conversation between a doctor and a patient below and write a concise clinical note for the doctor's records.

The note must include:
- Symptoms and complaints reported by the patient, with their duration
- Medicines prescribed, with the rationale for each one
- Treatment duration
- Follow-up schedule (write "Not specified" if none was given)

Use standard clinical terminology. Do not invent findings that are not in the conversation.`

const firmPrompt = `You are a quality-control agent for a healthcare provider. Review the conversation between a doctor and a patient below and write a quality report for the firm.

The report must include:
- An assessment of how each participant behaved during the consultation
- Whether the diagnosis and prescription are consistent with the reported symptoms
- An assessment of the doctor's empathy and clarity
- Follow-up needed: Yes or No, with a one-line reason

Be factual and neutral. Base every statement on the conversation.`

const sentimentPrompt = `You are an expert in sentiment analysis and linguistics. Analyze the conversation between a doctor and a patient below.

The analysis must include:
- Overall sentiment: exactly one of Positive, Neutral or Negative
- Emotional tone of the patient and of the doctor (a few descriptive words each)
- Any signs of distress, anxiety or urgency, quoting the relevant lines
- An assessment of politeness and clarity on both sides`

const intentPrompt = `You are a conversation analyst. Analyze the conversation between a doctor and a patient below.

The analysis must include:
- Keywords, grouped as: symptoms, conditions, medicines, actions
- Patient intent (for example: seeking diagnosis, prescription refill, follow-up, second opinion)
- Doctor intent (for example: diagnosing, prescribing, reassuring, referring)
- A one-line summary of the interaction`
