package code

import (
	"errors"
	"strings"
)

// lang stores the English and Chinese text of a message
// lang 存储消息的英文和中文文本
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

const (
	LangEN   = "en"
	LangZhCN = "zh_cn"
)

// FALLBACK_LNG fallback language // 回退语言
const FALLBACK_LNG = LangEN

// Default language is English // 默认语言为英文
var lng = FALLBACK_LNG

// GetMessage returns the message in the global default language
// GetMessage 返回全局默认语言的消息
func (l lang) GetMessage() string {
	return l.GetMessageIn(lng)
}

// GetMessageIn returns the message in the given language, falling back to English
// GetMessageIn 返回指定语言的消息，找不到时回退到英文
func (l lang) GetMessageIn(language string) string {
	switch NormalizeLang(language) {
	case LangZhCN:
		if l.zh_cn != "" {
			return l.zh_cn
		}
	}
	return l.en
}

// NormalizeLang maps request language tags onto a supported language
// NormalizeLang 将请求中的语言标记映射为受支持的语言
// zh, zh-CN, zh_cn -> zh_cn; everything else -> en
func NormalizeLang(language string) string {
	language = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(language), "-", "_"))
	if language == "zh" || strings.HasPrefix(language, "zh_") {
		return LangZhCN
	}
	return FALLBACK_LNG
}

// GetSupportedLanguages returns all languages supported by lang
// GetSupportedLanguages 返回 lang 支持的所有语言
func GetSupportedLanguages() []string {
	return []string{LangEN, LangZhCN}
}

// SetGlobalDefaultLang sets the global default language
// SetGlobalDefaultLang 设置全局默认语言
func SetGlobalDefaultLang(language string) error {
	for _, supported := range GetSupportedLanguages() {
		if language == supported {
			lng = language
			return nil
		}
	}
	lng = FALLBACK_LNG
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang gets the global default language
// GetGlobalDefaultLang 获取全局默认语言
func GetGlobalDefaultLang() string {
	return lng
}
