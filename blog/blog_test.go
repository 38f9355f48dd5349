package blog

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"inkwell/auth"
	"inkwell/models"
)

var testTemplates = template.Must(template.New("").Parse(`
{{ define "error.html" }}{{ .error }}{{ end }}
{{ define "index.html" }}{{ range .posts }}{{ .Title }} {{ end }}{{ end }}
{{ define "post.html" }}{{ .post.Title }}|{{ len .post.Comments }} comments{{ end }}
{{ define "make-post.html" }}{{ with .fields }}{{ .Title }}{{ end }}{{ with .error }}{{ . }}{{ end }}{{ end }}
`))

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))
	router.SetHTMLTemplate(testTemplates)

	authModule := auth.NewModule(db)
	blogModule := NewBlogModule(db, authModule)
	blogModule.RegisterRoutes(router)

	// test-only login endpoint so requests can carry a real session cookie
	router.GET("/__login/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		session := sessions.Default(c)
		session.Set("user_id", id)
		session.Save()
		c.Status(http.StatusNoContent)
	})

	return router
}

func loginAs(router *gin.Engine, userID int) string {
	req, _ := http.NewRequest("GET", "/__login/"+strconv.Itoa(userID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Header().Get("Set-Cookie")
}

func doGet(router *gin.Engine, path, cookie string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doPost(router *gin.Engine, path string, form url.Values, cookie string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIndex(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, models.RoleAdmin)
	createTestPost(db, author.ID, "Hello")

	w := doGet(router, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello")
}

func TestShowPost_NotFound(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	w := doGet(router, "/post/42", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewPost_AnonymousForbidden(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	w := doGet(router, "/new-post", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doPost(router, "/new-post", url.Values{
		"title":    {"Sneaky"},
		"subtitle": {"s"},
		"img_url":  {"i"},
		"body":     {"b"},
	}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestNewPost_NonAdminForbidden(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	user := createTestUser(db, models.RoleUser)
	cookie := loginAs(router, user.ID)

	w := doGet(router, "/new-post", cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatePost_Admin(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	admin := createTestUser(db, models.RoleAdmin)
	cookie := loginAs(router, admin.ID)

	w := doPost(router, "/new-post", url.Values{
		"title":    {"Hello"},
		"subtitle": {"World"},
		"img_url":  {"https://example.com/img.jpg"},
		"body":     {"Body"},
	}, cookie)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var post models.Post
	assert.NoError(t, db.Where("title = ?", "Hello").First(&post).Error)
	assert.Equal(t, admin.ID, post.AuthorID)
}

func TestCreatePost_DuplicateTitleRerendersForm(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	admin := createTestUser(db, models.RoleAdmin)
	createTestPost(db, admin.ID, "Hello")
	cookie := loginAs(router, admin.ID)

	w := doPost(router, "/new-post", url.Values{
		"title":    {"Hello"},
		"subtitle": {"Again"},
		"img_url":  {"i"},
		"body":     {"b"},
	}, cookie)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
}

func TestEditPost_AdminPrepopulated(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	admin := createTestUser(db, models.RoleAdmin)
	post := createTestPost(db, admin.ID, "Hello")
	cookie := loginAs(router, admin.ID)

	w := doGet(router, "/edit-post/"+strconv.Itoa(post.ID), cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello")
}

func TestEditPost_NonAdminForbidden(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	admin := createTestUser(db, models.RoleAdmin)
	user := createTestUser(db, models.RoleUser)
	post := createTestPost(db, admin.ID, "Hello")
	cookie := loginAs(router, user.ID)

	w := doGet(router, "/edit-post/"+strconv.Itoa(post.ID), cookie)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdatePost_Admin(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	admin := createTestUser(db, models.RoleAdmin)
	post := createTestPost(db, admin.ID, "Hello")
	cookie := loginAs(router, admin.ID)

	w := doPost(router, "/edit-post/"+strconv.Itoa(post.ID), url.Values{
		"title":    {"Hello Again"},
		"subtitle": {"New"},
		"img_url":  {"https://example.com/new.jpg"},
		"body":     {"New body"},
	}, cookie)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/post/"+strconv.Itoa(post.ID), w.Header().Get("Location"))

	var updated models.Post
	db.First(&updated, post.ID)
	assert.Equal(t, "Hello Again", updated.Title)
	assert.Equal(t, post.Date, updated.Date)
}

func TestAddComment_AnonymousRedirectsToLogin(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, models.RoleAdmin)
	post := createTestPost(db, author.ID, "Hello")

	w := doPost(router, "/post/"+strconv.Itoa(post.ID), url.Values{
		"comment": {"First!"},
	}, "")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestAddComment_Authenticated(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, models.RoleAdmin)
	commenter := createTestUser(db, models.RoleUser)
	post := createTestPost(db, author.ID, "Hello")
	cookie := loginAs(router, commenter.ID)

	w := doPost(router, "/post/"+strconv.Itoa(post.ID), url.Values{
		"comment": {"First!"},
	}, cookie)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/post/"+strconv.Itoa(post.ID), w.Header().Get("Location"))

	var comment models.Comment
	assert.NoError(t, db.Where("post_id = ?", post.ID).First(&comment).Error)
	assert.Equal(t, commenter.ID, comment.AuthorID)
}

func TestAddComment_EmptyTextIgnored(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, models.RoleAdmin)
	commenter := createTestUser(db, models.RoleUser)
	post := createTestPost(db, author.ID, "Hello")
	cookie := loginAs(router, commenter.ID)

	w := doPost(router, "/post/"+strconv.Itoa(post.ID), url.Values{
		"comment": {"   "},
	}, cookie)

	assert.Equal(t, http.StatusFound, w.Code)

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeletePost_Admin(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	admin := createTestUser(db, models.RoleAdmin)
	commenter := createTestUser(db, models.RoleUser)
	post := createTestPost(db, admin.ID, "Doomed")
	createTestComment(db, post.ID, commenter.ID)
	cookie := loginAs(router, admin.ID)

	w := doGet(router, "/delete/"+strconv.Itoa(post.ID), cookie)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var posts, comments int64
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Comment{}).Count(&comments)
	assert.Equal(t, int64(0), posts)
	assert.Equal(t, int64(0), comments)
}

func TestDeleteComment_Admin(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	admin := createTestUser(db, models.RoleAdmin)
	commenter := createTestUser(db, models.RoleUser)
	post := createTestPost(db, admin.ID, "Hello")
	comment := createTestComment(db, post.ID, commenter.ID)
	cookie := loginAs(router, admin.ID)

	w := doGet(router, "/delete-comment/"+strconv.Itoa(comment.ID), cookie)

	assert.Equal(t, http.StatusFound, w.Code)

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeleteComment_NonAdminForbidden(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	admin := createTestUser(db, models.RoleAdmin)
	commenter := createTestUser(db, models.RoleUser)
	post := createTestPost(db, admin.ID, "Hello")
	comment := createTestComment(db, post.ID, commenter.ID)
	cookie := loginAs(router, commenter.ID)

	w := doGet(router, "/delete-comment/"+strconv.Itoa(comment.ID), cookie)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGravatarURL(t *testing.T) {
	url1 := GravatarURL("Someone@Example.com ")
	url2 := GravatarURL("someone@example.com")

	assert.Equal(t, url1, url2)
	assert.Contains(t, url1, "gravatar.com/avatar/")
}

func TestRenderBody(t *testing.T) {
	html := string(renderBody("# Title\n\nSome **bold** text"))

	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>bold</strong>")

	// rich-editor HTML passes through untouched
	html = string(renderBody(`<p>already <em>html</em></p>`))
	assert.Contains(t, html, "<em>html</em>")
}
