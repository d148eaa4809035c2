package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequirePartner is a middleware that ensures a print-shop partner is
// signed in before reaching dashboard routes
func RequirePartner() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		partnerID := session.Get("partner_id")

		if partnerID == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "partner sign-in required"})
			return
		}

		// Partner is authenticated - set context values for downstream handlers
		c.Set("partner_id", partnerID)
		c.Set("partner_email", session.Get("partner_email"))
		c.Set("partner_name", session.Get("partner_name"))

		c.Next()
	}
}

// OptionalIdentity exposes a visitor's session identity (if any) to
// downstream handlers without requiring sign-in. The draft flow is
// anonymous-first: identity only improves latest-draft lookup.
func OptionalIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		if userID := session.Get("user_id"); userID != nil {
			c.Set("user_id", userID)
		}
		if email := session.Get("user_email"); email != nil {
			c.Set("user_email", email)
		}

		c.Next()
	}
}
