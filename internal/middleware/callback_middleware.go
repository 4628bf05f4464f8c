package middleware

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/raihanpk/tiketku/internal/helpers"
)

// CallbackTokenMiddleware authenticates the payment provider's webhook
// by its callback token header. Requests without a valid token never
// reach the settlement surface.
func CallbackTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Callback-Token")
		if !helpers.VerifyCallbackToken(token, os.Getenv("XENDIT_CALLBACK_TOKEN")) {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid callback token.")
			c.Abort()
			return
		}
		c.Next()
	}
}
