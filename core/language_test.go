package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Language
	}{
		{"empty", "", LanguagePython},
		{"unknown", "klingon", LanguagePython},
		{"canonical", "sql", LanguageSQL},
		{"uppercase canonical", "JAVA", LanguageJava},
		{"mixed case", "TypeScript", LanguageTypeScript},
		{"cpp display name", "C++", LanguageCPP},
		{"js shorthand", "js", LanguageJavaScript},
		{"ts shorthand", "TS", LanguageTypeScript},
		{"c", "c", LanguageC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLanguage(tt.input))
		})
	}
}

func TestNormalizeLanguageIdempotent(t *testing.T) {
	inputs := []string{"", "klingon", "C++", "js", "TS", "python", "SQL"}
	for _, input := range inputs {
		once := NormalizeLanguage(input)
		assert.Equal(t, once, NormalizeLanguage(string(once)), "input %q", input)
	}
}

func TestNormalizeLanguageCoversAllAliases(t *testing.T) {
	for alias, want := range languageAliases {
		assert.Equal(t, want, NormalizeLanguage(alias))
	}
}
