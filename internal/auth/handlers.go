package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
	"gorm.io/gorm"
)

// HandleLogin initiates the Google OAuth flow for print-shop partners
func HandleLogin(c *gin.Context) {
	// Gothic requires the "provider" query parameter
	q := c.Request.URL.Query()
	q.Add("provider", "google")
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// HandleCallback completes the OAuth flow, upserts the partner and its
// identity (tokens encrypted at rest), and stores info in session
func HandleCallback(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Gothic requires the "provider" query parameter
		q := c.Request.URL.Query()
		q.Add("provider", "google")
		c.Request.URL.RawQuery = q.Encode()

		gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
		if err != nil {
			log.Printf("Auth error: %v", err)
			c.Redirect(http.StatusFound, "/partner/login?error=auth_failed")
			return
		}

		// Upsert partner record in database
		now := time.Now()
		var partner models.Partner
		result := db.Where("email = ?", gothUser.Email).First(&partner)
		if result.Error == gorm.ErrRecordNotFound {
			partner = models.Partner{
				Email:       gothUser.Email,
				Name:        gothUser.Name,
				LastLoginAt: &now,
			}
			if err := db.Create(&partner).Error; err != nil {
				log.Printf("Partner create error: %v", err)
				c.Redirect(http.StatusFound, "/partner/login?error=auth_failed")
				return
			}
		} else if result.Error == nil {
			db.Model(&partner).Updates(map[string]interface{}{
				"name":          gothUser.Name,
				"last_login_at": now,
			})
		} else {
			log.Printf("Partner lookup error: %v", result.Error)
			c.Redirect(http.StatusFound, "/partner/login?error=auth_failed")
			return
		}

		// Upsert the OAuth identity; BeforeSave encrypts the tokens
		var identity models.PartnerIdentity
		result = db.Where("provider = ? AND provider_user_id = ?", "google", gothUser.UserID).First(&identity)
		if result.Error == gorm.ErrRecordNotFound {
			identity = models.PartnerIdentity{
				PartnerID:      partner.ID,
				Provider:       "google",
				ProviderUserID: gothUser.UserID,
				AccessToken:    gothUser.AccessToken,
				RefreshToken:   gothUser.RefreshToken,
				TokenExpiry:    &gothUser.ExpiresAt,
			}
			db.Create(&identity)
		} else if result.Error == nil {
			identity.AccessToken = gothUser.AccessToken
			identity.RefreshToken = gothUser.RefreshToken
			identity.TokenExpiry = &gothUser.ExpiresAt
			db.Save(&identity)
		}

		// Store partner info in session
		session := sessions.Default(c)
		session.Set("partner_id", partner.ID)
		session.Set("partner_email", partner.Email)
		session.Set("partner_name", partner.Name)

		if err := session.Save(); err != nil {
			log.Printf("Session save error: %v", err)
			c.Redirect(http.StatusFound, "/partner/login?error=session_failed")
			return
		}

		log.Printf("Partner authenticated: %s (%s)", partner.Name, partner.Email)
		c.Redirect(http.StatusFound, "/partner/orders")
	}
}

// HandleLogout clears the session and redirects to the partner login page
func HandleLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()

	if err := session.Save(); err != nil {
		log.Printf("Session clear error: %v", err)
	}

	c.Redirect(http.StatusFound, "/partner/login")
}
