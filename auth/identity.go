package auth

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"inkwell/models"
)

// Identity is either a logged-in account or the anonymous visitor.
type Identity interface {
	IsAuthenticated() bool
	Role() string
}

// Anonymous is the identity of a visitor with no session.
type Anonymous struct{}

func (Anonymous) IsAuthenticated() bool { return false }
func (Anonymous) Role() string          { return "" }

// Account is the identity of an authenticated user.
type Account struct {
	User *models.User
}

func (Account) IsAuthenticated() bool { return true }
func (a Account) Role() string        { return a.User.Role }
func (a Account) Name() string        { return a.User.Name }

// CurrentIdentity resolves the identity for this request from the session.
// Stale or malformed session ids resolve to Anonymous.
func (m *Module) CurrentIdentity(c *gin.Context) Identity {
	session := sessions.Default(c)
	v := session.Get("user_id")
	if v == nil {
		return Anonymous{}
	}

	userID, ok := v.(int)
	if !ok {
		return Anonymous{}
	}

	var user models.User
	if err := m.db.First(&user, userID).Error; err != nil {
		return Anonymous{}
	}

	return Account{User: &user}
}
