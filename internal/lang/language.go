package lang

import (
	"fmt"
	"strings"
)

// validLanguages contains the ISO 639-1 base codes accepted as a reporting
// language. The list mirrors the languages the completion models handle well.
var validLanguages = map[string]bool{
	"ar": true, // Arabic
	"bn": true, // Bengali
	"de": true, // German
	"en": true, // English
	"es": true, // Spanish
	"fa": true, // Persian
	"fr": true, // French
	"gu": true, // Gujarati
	"hi": true, // Hindi
	"it": true, // Italian
	"ja": true, // Japanese
	"kn": true, // Kannada
	"ko": true, // Korean
	"ml": true, // Malayalam
	"mr": true, // Marathi
	"nl": true, // Dutch
	"pa": true, // Punjabi
	"pl": true, // Polish
	"pt": true, // Portuguese
	"ru": true, // Russian
	"ta": true, // Tamil
	"te": true, // Telugu
	"tr": true, // Turkish
	"uk": true, // Ukrainian
	"ur": true, // Urdu
	"vi": true, // Vietnamese
	"zh": true, // Chinese
}

// displayNames maps normalized codes to the names used in prompt instructions.
var displayNames = map[string]string{
	"ar":    "Arabic",
	"bn":    "Bengali",
	"de":    "German",
	"en":    "English",
	"en-gb": "British English",
	"en-us": "American English",
	"es":    "Spanish",
	"fa":    "Persian",
	"fr":    "French",
	"gu":    "Gujarati",
	"hi":    "Hindi",
	"it":    "Italian",
	"ja":    "Japanese",
	"kn":    "Kannada",
	"ko":    "Korean",
	"ml":    "Malayalam",
	"mr":    "Marathi",
	"nl":    "Dutch",
	"pa":    "Punjabi",
	"pl":    "Polish",
	"pt":    "Portuguese",
	"pt-br": "Brazilian Portuguese",
	"ru":    "Russian",
	"ta":    "Tamil",
	"te":    "Telugu",
	"tr":    "Turkish",
	"uk":    "Ukrainian",
	"ur":    "Urdu",
	"vi":    "Vietnamese",
	"zh":    "Chinese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
}

// Language is a validated language code.
// The zero value means "not specified"; callers pick their own default.
type Language struct {
	code string
}

// English is the pre-parsed default reporting language.
var English = Language{code: "en"}

// Normalize lowercases a code and converts underscores to hyphens.
// Accepts: "pt-BR", "pt_BR", "PT-BR" -> "pt-br"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

// Parse validates a language code. Empty input returns the zero Language.
// Returns an error wrapping ErrInvalid if the base language is not supported.
func Parse(s string) (Language, error) {
	if s == "" {
		return Language{}, nil
	}
	normalized := Normalize(s)
	if !validLanguages[baseOf(normalized)] {
		return Language{}, fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'hi', 'pt-BR'): %w",
			s, ErrInvalid)
	}
	return Language{code: normalized}, nil
}

// MustParse parses a language code, panicking if invalid.
// Use only for constants and tests.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the normalized code, or "" for the zero value.
func (l Language) String() string {
	return l.code
}

// IsZero reports whether no language was specified.
func (l Language) IsZero() bool {
	return l.code == ""
}

// IsEnglish reports whether the language is English or an English locale.
func (l Language) IsEnglish() bool {
	return l.code == "en" || strings.HasPrefix(l.code, "en-")
}

// BaseCode returns the ISO 639-1 part of the code: "pt-br" -> "pt".
func (l Language) BaseCode() string {
	return baseOf(l.code)
}

// OrDefault returns l, or English if l is the zero value.
func (l Language) OrDefault() Language {
	if l.IsZero() {
		return English
	}
	return l
}

// DisplayName returns a human-readable name for prompt instructions.
// Falls back to the base language name, then to the code itself.
func (l Language) DisplayName() string {
	if name, ok := displayNames[l.code]; ok {
		return name
	}
	if name, ok := displayNames[baseOf(l.code)]; ok {
		return name
	}
	return l.code
}

func baseOf(normalized string) string {
	if idx := strings.Index(normalized, "-"); idx != -1 {
		return normalized[:idx]
	}
	return normalized
}
