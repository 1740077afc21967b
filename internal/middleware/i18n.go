// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/catalog-backend/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", resolveLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// resolveLanguage picks the first supported entry of an Accept-Language
// header such as "pt-BR,pt;q=0.9,en;q=0.8".
func resolveLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		// Convert common language codes
		switch strings.ToLower(tag) {
		case "pt-br", "pt_br", "pt":
			tag = "pt_BR"
		case "en", "en-us", "en-gb":
			tag = "en"
		}
		if tag != "" && i18n.Supported(tag) {
			return tag
		}
	}
	return i18n.DefaultLang()
}
