package auth

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkwell/models"
)

type Module struct {
	db          *gorm.DB
	store       *Store
	adminSecret string
}

func NewModule(db *gorm.DB) *Module {
	adminSecret := os.Getenv("ADMIN_SECRET")
	if adminSecret == "" {
		adminSecret = "siisi321"
	}

	return &Module{
		db:          db,
		store:       NewStore(db),
		adminSecret: adminSecret,
	}
}

func (m *Module) Store() *Store {
	return m.store
}

func (m *Module) RegisterRoutes(router *gin.Engine) {
	router.GET("/register", m.registerPage)
	router.POST("/register", m.registerPost)
	router.GET("/login", m.loginPage)
	router.POST("/login", m.loginPost)
	router.GET("/logout", m.logout)
}

// RequireUser guards routes that need any authenticated identity.
func (m *Module) RequireUser(c *gin.Context) {
	identity := m.CurrentIdentity(c)
	if !identity.IsAuthenticated() {
		Flash(c, "You need to login or register to comment.")
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}

	c.Set("identity", identity)
	c.Next()
}

// RequireAdmin guards admin-only routes. Anonymous visitors and plain users
// both get a 403 page before the handler runs.
func (m *Module) RequireAdmin(c *gin.Context) {
	identity := m.CurrentIdentity(c)
	if identity.Role() != models.RoleAdmin {
		c.HTML(http.StatusForbidden, "error.html", gin.H{
			"code":  http.StatusForbidden,
			"error": "You don't have permission to access this page.",
			"user":  identity,
			"date":  Dateline(),
		})
		c.Abort()
		return
	}

	c.Set("identity", identity)
	c.Next()
}

func (m *Module) registerPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"user":    m.CurrentIdentity(c),
		"date":    Dateline(),
		"flashes": Flashes(c),
	})
}

func (m *Module) registerPost(c *gin.Context) {
	email := c.PostForm("email")
	name := c.PostForm("name")
	password := c.PostForm("password")

	user, err := m.store.Register(email, name, password)
	if errors.Is(err, ErrDuplicateEmail) {
		Flash(c, "You've already signed up with that email, log in instead!")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"code":  http.StatusInternalServerError,
			"error": "Could not create your account, please try again.",
			"user":  Anonymous{},
			"date":  Dateline(),
		})
		return
	}

	m.loginUser(c, user)
	c.Redirect(http.StatusFound, "/")
}

func (m *Module) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"user":    m.CurrentIdentity(c),
		"date":    Dateline(),
		"flashes": Flashes(c),
	})
}

func (m *Module) loginPost(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	secretCode := c.PostForm("secret_code")

	user, err := m.store.Verify(email, password)
	switch {
	case errors.Is(err, ErrNotFound):
		Flash(c, "That email does not exist, please try again.")
		c.Redirect(http.StatusFound, "/login")
		return
	case errors.Is(err, ErrBadPassword):
		Flash(c, "Password incorrect, please try again.")
		c.Redirect(http.StatusFound, "/login")
		return
	case err != nil:
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"code":  http.StatusInternalServerError,
			"error": "Could not log you in, please try again.",
			"user":  Anonymous{},
			"date":  Dateline(),
		})
		return
	}

	// Supplying the admin secret at login promotes the account, once.
	if secretCode != "" && secretCode == m.adminSecret {
		promoted, err := m.store.Promote(user)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{
				"code":  http.StatusInternalServerError,
				"error": "Could not log you in, please try again.",
				"user":  Anonymous{},
				"date":  Dateline(),
			})
			return
		}
		if promoted {
			Flash(c, "You now have admin access!")
		}
	}

	m.loginUser(c, user)
	c.Redirect(http.StatusFound, "/")
}

func (m *Module) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func (m *Module) loginUser(c *gin.Context, user *models.User) {
	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()
}

// Flash queues a one-shot notice for the next rendered page.
func Flash(c *gin.Context, message string) {
	session := sessions.Default(c)
	session.AddFlash(message)
	session.Save()
}

// Flashes drains queued notices.
func Flashes(c *gin.Context) []interface{} {
	session := sessions.Default(c)
	flashes := session.Flashes()
	if len(flashes) > 0 {
		session.Save()
	}
	return flashes
}

// Dateline is the header date string every page shows.
func Dateline() string {
	return time.Now().UTC().Format("Mon 02 January 2006")
}
