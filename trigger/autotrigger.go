// Package trigger decides whether an automatic (non-user-invoked) completion
// request should fire. The decision is a logistic model over typing context;
// Enter and special-character keystrokes bypass the model and always trigger.
package trigger

import (
	"math"
	"runtime"
	"strings"

	"codetab/logger"
	"codetab/types"
)

// Threshold applied to the sigmoid of the classifier score.
const Threshold = 0.43

// AutomatedTriggerType classifies the editing event preceding the cursor.
type AutomatedTriggerType string

const (
	TriggerSpecialCharacters AutomatedTriggerType = "SpecialCharacters"
	TriggerEnter             AutomatedTriggerType = "Enter"
	TriggerClassifier        AutomatedTriggerType = "Classifier"
)

// Result is the auto-trigger decision plus the raw score for telemetry.
type Result struct {
	ShouldTrigger       bool
	ClassifierResult    float64
	ClassifierThreshold float64
}

// Params carries everything the classifier looks at. PreviousDecision is the
// previous session's aggregated trigger decision ("Accept", "Reject",
// "Discard", "Empty" or empty when unknown).
type Params struct {
	FileContext      types.FileContext
	Char             string
	TriggerType      string
	OS               string
	PreviousDecision string
	IDE              string
	LineNum          int
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Single characters that guarantee a trigger, including the paired forms
// editors insert for brackets.
func isSpecialCharacter(char string) bool {
	switch char {
	case "(", "()", "[", "[]", "{", "{}", ":":
		return true
	}
	return false
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// TriggerType classifies the event that led to the invocation position from
// file context alone. Without real keypress events we infer: a special
// character immediately left of the cursor, a fresh blank line (Enter), or
// regular typing to be scored by the classifier.
func TriggerType(fc types.FileContext) AutomatedTriggerType {
	trimmed := strings.TrimRight(fc.LeftFileContent, " \t\n\r")
	if len(trimmed) > 0 && isSpecialCharacter(trimmed[len(trimmed)-1:]) {
		return TriggerSpecialCharacters
	}

	if idx := strings.LastIndex(fc.LeftFileContent, "\r\n"); idx >= 0 {
		if strings.TrimSpace(fc.LeftFileContent[idx+2:]) == "" {
			return TriggerEnter
		}
	}
	if idx := strings.LastIndex(fc.LeftFileContent, "\n"); idx >= 0 {
		if strings.TrimSpace(fc.LeftFileContent[idx+1:]) == "" {
			return TriggerEnter
		}
	}

	return TriggerClassifier
}

// Enter insertions start with one newline and may carry reindentation spaces.
func isEnterKey(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "\r\n") {
		return strings.TrimSpace(s[2:]) == ""
	}
	return s[0] == '\n' && strings.TrimSpace(s[1:]) == ""
}

func isSingleLine(s string) bool {
	if isEnterKey(s) {
		return true
	}
	return strings.Count(s, "\n") == 0
}

func isTabKey(s string) bool {
	const tabSize = 4
	return len(s) > 0 && len(s)%tabSize == 0 && strings.TrimSpace(s) == ""
}

// AutoTriggerTypeFrom classifies the document change that preceded an
// automatic request. ok is false for events that must not trigger at all:
// multi-change edits, deletions, tab indents and whitespace-only reformats.
func AutoTriggerTypeFrom(changes []types.ContentChange) (AutomatedTriggerType, bool) {
	if len(changes) != 1 {
		// Multi-change events (e.g. repeated Enter presses) never trigger.
		return "", false
	}
	text := changes[0].Text
	if !isSingleLine(text) || text == "" {
		return "", false
	}
	switch {
	case isEnterKey(text):
		return TriggerEnter, true
	case isTabKey(text):
		return "", false
	case isSpecialCharacter(text):
		return TriggerSpecialCharacters, true
	case len(text) == 1:
		return TriggerClassifier, true
	case strings.TrimLeft(text, " ") == "":
		// Single-position reformat, spaces only.
		return "", false
	}
	return "", false
}

// NormalizeOSName maps the runtime platform to the labels the model was
// trained on.
func NormalizeOSName() string {
	switch runtime.GOOS {
	case "darwin":
		return "Mac OS X"
	case "windows":
		return "Windows 10"
	case "linux":
		return "Linux"
	default:
		return runtime.GOOS
	}
}

func normalize(val, minn, maxx float64) float64 {
	return (val - minn) / (maxx - minn)
}

// AutoTrigger scores a potential automatic invocation. It is a pure function
// of its params: no hidden state, identical input gives identical output.
func AutoTrigger(p Params) Result {
	leftLines := splitLines(p.FileContext.LeftFileContent)
	leftCurrent := leftLines[len(leftLines)-1]
	rightLines := splitLines(p.FileContext.RightFileContent)
	rightCurrent := rightLines[0]

	// Do not trigger with immediate right context on the same line; "}" and
	// ")" are exempt because of editor bracket auto-completion. Applies to
	// the IDE families the product behavior was defined for.
	if len(rightCurrent) > 0 &&
		!strings.HasPrefix(rightCurrent, " ") &&
		strings.TrimSpace(rightCurrent) != "}" &&
		strings.TrimSpace(rightCurrent) != ")" &&
		(p.IDE == "VSCODE" || p.IDE == "JETBRAINS") {
		logger.Debug("skip auto trigger: immediate right context")
		return Result{ShouldTrigger: false, ClassifierResult: 0, ClassifierThreshold: Threshold}
	}

	tokens := strings.Split(strings.TrimSpace(leftCurrent), " ")
	lastToken := tokens[len(tokens)-1]
	keyword := ""
	if len(lastToken) > 1 {
		keyword = lastToken
	}

	lengthOfLeftCurrent := len(leftCurrent)
	lengthOfLeftPrev := 0
	if len(leftLines) >= 2 {
		lengthOfLeftPrev = len(leftLines[len(leftLines)-2])
	}
	lengthOfRight := len(strings.TrimSpace(p.FileContext.RightFileContent))

	previousDecisionCoefficient := 0.0
	switch p.PreviousDecision {
	case "Accept":
		previousDecisionCoefficient = coefficients.PrevDecisionAccept
	case "Reject":
		previousDecisionCoefficient = coefficients.PrevDecisionReject
	case "Discard", "Empty":
		previousDecisionCoefficient = coefficients.PrevDecisionOther
	}

	leftContextLengthCoefficient := 0.0
	switch leftLen := len(p.FileContext.LeftFileContent); {
	case leftLen < 5:
		leftContextLengthCoefficient = coefficients.LengthLeft0To5
	case leftLen < 10:
		leftContextLengthCoefficient = coefficients.LengthLeft5To10
	case leftLen < 20:
		leftContextLengthCoefficient = coefficients.LengthLeft10To20
	case leftLen < 30:
		leftContextLengthCoefficient = coefficients.LengthLeft20To30
	case leftLen < 40:
		leftContextLengthCoefficient = coefficients.LengthLeft30To40
	case leftLen < 50:
		leftContextLengthCoefficient = coefficients.LengthLeft40To50
	}

	classifierResult := coefficients.LengthOfRight*normalize(float64(lengthOfRight), coefficients.Minn.LenRight, coefficients.Maxx.LenRight) +
		coefficients.LengthOfLeftCurrent*normalize(float64(lengthOfLeftCurrent), coefficients.Minn.LenLeftCur, coefficients.Maxx.LenLeftCur) +
		coefficients.LengthOfLeftPrev*normalize(float64(lengthOfLeftPrev), coefficients.Minn.LenLeftPrev, coefficients.Maxx.LenLeftPrev) +
		coefficients.LineNum*normalize(float64(p.LineNum), coefficients.Minn.LineNum, coefficients.Maxx.LineNum) +
		coefficients.OS[p.OS] +
		coefficients.TriggerType[p.TriggerType] +
		coefficients.Char[p.Char] +
		coefficients.Char[keyword] +
		coefficients.IDE[p.IDE] +
		coefficients.Intercept +
		previousDecisionCoefficient +
		coefficients.Language[p.FileContext.ProgrammingLanguage.LanguageName] +
		leftContextLengthCoefficient

	return Result{
		ShouldTrigger:       sigmoid(classifierResult) > Threshold,
		ClassifierResult:    classifierResult,
		ClassifierThreshold: Threshold,
	}
}
