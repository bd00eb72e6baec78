package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
	ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrDeepSeekKeyMissing indicates DEEPSEEK_API_KEY environment variable is not set.
	ErrDeepSeekKeyMissing = errors.New("DEEPSEEK_API_KEY environment variable not set")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrEmptyTranscript indicates the input holds no conversation.
	ErrEmptyTranscript = errors.New("transcript is empty, please paste or select a conversation")

	// ErrInputConflict indicates both a transcript file and --example were given.
	ErrInputConflict = errors.New("give either a transcript file or --example, not both")

	// ErrInvalidParallel indicates --parallel is below 1.
	ErrInvalidParallel = errors.New("parallel must be at least 1")

	// ErrInvalidReports indicates at least one requested kind was unknown.
	ErrInvalidReports = errors.New("invalid report type requested")

	// ErrReportsUnavailable indicates at least one report could not be generated.
	ErrReportsUnavailable = errors.New("could not generate report, try again later")
)
