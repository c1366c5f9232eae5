package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// InitData validates Telegram Mini App init-data and stores the parsed user in
// the context. The raw string is expected in the "X-Telegram-Init-Data" header
// or the "init_data" query parameter. expIn of 0 disables the TTL check.
func InitData(token string, expIn time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "init-data validation is not configured"})
			return
		}

		raw := c.GetHeader("X-Telegram-Init-Data")
		if raw == "" {
			raw = c.Query("init_data")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing init_data"})
			return
		}

		if err := initdata.Validate(raw, token, expIn); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid init_data"})
			return
		}

		parsed, err := initdata.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid init_data format"})
			return
		}

		if parsed.User.ID != 0 {
			c.Set("user", parsed.User)
			c.Set("user_id", parsed.User.ID)
		}
		c.Next()
	}
}
