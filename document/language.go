package document

import "strings"

// runtimeLanguages maps editor language ids to the normalized names the
// suggestion backend and the trigger classifier understand.
var runtimeLanguages = map[string]string{
	"c":               "c",
	"cpp":             "cpp",
	"c++":             "cpp",
	"csharp":          "csharp",
	"go":              "go",
	"golang":          "go",
	"java":            "java",
	"javascript":      "javascript",
	"javascriptreact": "jsx",
	"jsx":             "jsx",
	"kotlin":          "kotlin",
	"php":             "php",
	"python":          "python",
	"ruby":            "ruby",
	"rust":            "rust",
	"scala":           "scala",
	"shellscript":     "shell",
	"sh":              "shell",
	"sql":             "sql",
	"typescript":      "typescript",
	"typescriptreact": "tsx",
	"tsx":             "tsx",
}

// SupportedLanguage normalizes a document's language id. ok is false for
// languages the backend does not accept; the handler degrades to the empty
// result in that case.
func SupportedLanguage(d *Document) (language string, ok bool) {
	language, ok = runtimeLanguages[strings.ToLower(d.LanguageID)]
	return language, ok
}
