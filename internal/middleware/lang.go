package middleware

import (
	"strings"

	"github.com/haierkeys/note-keeper-service/pkg/app"
	"github.com/haierkeys/note-keeper-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 创建带翻译器的语言中间件（支持依赖注入）
// 语言来源优先级：?lang= -> lang 请求头 -> Accept-Language
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		} else if s = c.GetHeader("Accept-Language"); len(s) != 0 {
			lang = strings.SplitN(s, ",", 2)[0]
		}

		lang = code.NormalizeLang(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "-", "_")))

		locale := "en"
		if lang == code.LangZhCN {
			locale = "zh"
		}
		if trans, found := uni.GetTranslator(locale); found {
			c.Set("trans", trans)
		}
		c.Set(app.LangKey, lang)

		c.Next()
	}
}
