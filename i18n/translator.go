package i18n

import (
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "gt"); placeholders are written as {name}.
type Translator interface {
	Message(code string, data map[string]string) string
}

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":           "Input should be a valid {expected}",
		"required":               "Field required",
		"unknown_key":            "Extra inputs are not permitted",
		"coercion_failed":        "Input should be a valid {expected}, unable to parse input",
		"too_short":              "Value should have at least {min_length} {unit}",
		"too_long":               "Value should have at most {max_length} {unit}",
		"greater_than":           "Input should be greater than {gt}",
		"greater_than_equal":     "Input should be greater than or equal to {ge}",
		"less_than":              "Input should be less than {lt}",
		"less_than_equal":        "Input should be less than or equal to {le}",
		"pattern":                "String should match pattern '{pattern}'",
		"invalid_enum":           "Input should be {expected}",
		"invalid_format":         "Value is not a valid {format}",
		"custom":                 "Value error",
		"parse_error":            "parse error",
		"dependency_unavailable": "dependency unavailable",
	},
	"ja": {
		"invalid_type":           "{expected} 型である必要があります",
		"required":               "必須フィールドが不足しています",
		"unknown_key":            "未知のキーです",
		"coercion_failed":        "{expected} に変換できません",
		"too_short":              "{min_length} {unit}以上である必要があります",
		"too_long":               "{max_length} {unit}以下である必要があります",
		"greater_than":           "{gt} より大きい必要があります",
		"greater_than_equal":     "{ge} 以上である必要があります",
		"less_than":              "{lt} 未満である必要があります",
		"less_than_equal":        "{le} 以下である必要があります",
		"pattern":                "パターン '{pattern}' に一致しません",
		"invalid_enum":           "{expected} のいずれかである必要があります",
		"invalid_format":         "{format} の形式ではありません",
		"custom":                 "値が不正です",
		"parse_error":            "解析エラー",
		"dependency_unavailable": "依存先サービスが利用できません",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dictionaries[t.lang][code]
	if !ok {
		if tmpl, ok = dictionaries["en"][code]; !ok {
			return code
		}
	}
	return render(tmpl, data)
}

// render substitutes {name} placeholders. Placeholders without data are
// dropped together with one adjacent space.
func render(tmpl string, data map[string]string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	b := &strings.Builder{}
	for {
		i := strings.IndexByte(tmpl, '{')
		if i < 0 {
			b.WriteString(tmpl)
			break
		}
		j := strings.IndexByte(tmpl[i:], '}')
		if j < 0 {
			b.WriteString(tmpl)
			break
		}
		key := tmpl[i+1 : i+j]
		if v, ok := data[key]; ok && v != "" {
			b.WriteString(tmpl[:i])
			b.WriteString(v)
			tmpl = tmpl[i+j+1:]
			continue
		}
		b.WriteString(strings.TrimSuffix(tmpl[:i], " "))
		tmpl = tmpl[i+j+1:]
		if b.Len() == 0 {
			tmpl = strings.TrimPrefix(tmpl, " ")
		}
	}
	return strings.TrimSpace(b.String())
}

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator to the best supported match for
// the given BCP 47 tags or Accept-Language values. Unsupported languages fall
// back to English.
func SetLanguage(lang ...string) {
	current.Store(&holder{tr: dictTranslator{lang: Match(lang...)}})
}

// Match returns the supported base language ("en" or "ja") that best matches
// the given tags.
func Match(lang ...string) string {
	tag, _ := language.MatchStrings(matcher, lang...)
	base, _ := tag.Base()
	if base.String() == "ja" {
		return "ja"
	}
	return "en"
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
