package domain

import "strings"

// Language is a recognized conversion language tag.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageGo         Language = "go"
	LanguageCSharp     Language = "csharp"
	LanguageCPP        Language = "cpp"
	LanguageRust       Language = "rust"
	LanguageRuby       Language = "ruby"
	LanguagePHP        Language = "php"
	LanguageKotlin     Language = "kotlin"
	LanguageSwift      Language = "swift"
)

// FallbackSource is used when "auto" is selected and no usable analysis
// is available.
const FallbackSource = LanguageJavaScript

var languageAliases = map[string]Language{
	"python":     LanguagePython,
	"py":         LanguagePython,
	"java":       LanguageJava,
	"javascript": LanguageJavaScript,
	"js":         LanguageJavaScript,
	"node.js":    LanguageJavaScript,
	"nodejs":     LanguageJavaScript,
	"typescript": LanguageTypeScript,
	"ts":         LanguageTypeScript,
	"go":         LanguageGo,
	"golang":     LanguageGo,
	"csharp":     LanguageCSharp,
	"c#":         LanguageCSharp,
	"cpp":        LanguageCPP,
	"c++":        LanguageCPP,
	"rust":       LanguageRust,
	"ruby":       LanguageRuby,
	"php":        LanguagePHP,
	"kotlin":     LanguageKotlin,
	"swift":      LanguageSwift,
}

// ParseLanguage maps a free-form tag to a recognized Language.
func ParseLanguage(s string) (Language, bool) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(s))]
	return lang, ok
}

// SourceSelection is the tagged choice between "auto" and a fixed source
// language. The zero value is not valid; construct through AutoSource or
// FixedSource so resolution stays exhaustive.
type SourceSelection struct {
	auto bool
	lang Language
}

func AutoSource() SourceSelection {
	return SourceSelection{auto: true}
}

func FixedSource(lang Language) SourceSelection {
	return SourceSelection{lang: lang}
}

func (s SourceSelection) IsAuto() bool { return s.auto }

// Resolve returns the effective source language for a run. A fixed
// selection wins outright. "auto" uses the analysis' primary language when
// it is a recognized tag and falls back to FallbackSource otherwise.
func (s SourceSelection) Resolve(analysis *ProjectAnalysis) Language {
	if !s.auto {
		return s.lang
	}
	if analysis != nil {
		if lang, ok := ParseLanguage(analysis.PrimaryLanguage); ok {
			return lang
		}
	}
	return FallbackSource
}
