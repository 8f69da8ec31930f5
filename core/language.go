package core

import "strings"

// Language is the closed set of editor languages a room can carry.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageSQL        Language = "sql"
	LanguageJava       Language = "java"
	LanguageC          Language = "c"
	LanguageCPP        Language = "cpp"
)

// DefaultLanguage applies whenever a caller omits the language or
// supplies something outside the supported set.
const DefaultLanguage = LanguagePython

var languageAliases = map[string]Language{
	"python":     LanguagePython,
	"javascript": LanguageJavaScript,
	"typescript": LanguageTypeScript,
	"sql":        LanguageSQL,
	"java":       LanguageJava,
	"c":          LanguageC,
	"cpp":        LanguageCPP,

	// display-style names
	"c++": LanguageCPP,
	"js":  LanguageJavaScript,
	"ts":  LanguageTypeScript,
}

// NormalizeLanguage maps an arbitrary user-supplied string onto the
// supported set. It is total: empty or unrecognized input yields
// DefaultLanguage, never an error.
func NormalizeLanguage(input string) Language {
	if lang, ok := languageAliases[strings.ToLower(input)]; ok {
		return lang
	}
	return DefaultLanguage
}
