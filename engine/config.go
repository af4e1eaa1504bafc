package engine

import "time"

const (
	// Left and right file context are truncated to this many characters.
	contextCharactersLimit = 10240

	// Backend limits on identifier fields.
	fileURILimit  = 1024
	filenameLimit = 1024

	maxResultsAutomatic = 1
	maxResultsInvoked   = 5

	// A previous session's decision informs the classifier only this long.
	previousDecisionWindow = 2 * time.Minute
)

// Config carries host- and product-level settings for the engine.
type Config struct {
	// IDE family label, e.g. "VSCODE" or "JETBRAINS". Feeds the classifier
	// and the pre-close carve-out below.
	IDE string

	// OS label for the classifier; NormalizeOSName() when empty.
	OS string

	// IDE families whose clients close stale sessions themselves; the
	// engine must not pre-close the active session for them.
	SkipPreCloseForIDEs []string

	// EditsEnabled turns on edit predictions and streak tracking.
	EditsEnabled bool

	// IncludeSuggestionsWithCodeReferences keeps suggestions carrying
	// license attribution; when false they are filtered out.
	IncludeSuggestionsWithCodeReferences bool

	// IncludeImportsWithSuggestions passes missing-import recommendations
	// through to the editor.
	IncludeImportsWithSuggestions bool

	WorkspaceFolder  string
	WorkspaceID      string
	CustomizationARN string
}

// DefaultConfig returns the product defaults.
func DefaultConfig() Config {
	return Config{
		IDE:                                  "VSCODE",
		SkipPreCloseForIDEs:                  []string{"JETBRAINS"},
		IncludeSuggestionsWithCodeReferences: true,
		IncludeImportsWithSuggestions:        true,
	}
}

func (c Config) skipPreClose() bool {
	for _, ide := range c.SkipPreCloseForIDEs {
		if ide == c.IDE {
			return true
		}
	}
	return false
}
