package blog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkwell/auth"
)

type Module struct {
	db    *gorm.DB
	store *Store
	auth  *auth.Module
}

func NewBlogModule(db *gorm.DB, authModule *auth.Module) *Module {
	return &Module{
		db:    db,
		store: NewStore(db),
		auth:  authModule,
	}
}

func (b *Module) RegisterRoutes(router *gin.Engine) {
	router.GET("/", b.index)
	router.GET("/post/:id", b.showPost)
	router.POST("/post/:id", b.auth.RequireUser, b.addComment)

	router.GET("/new-post", b.auth.RequireAdmin, b.newPost)
	router.POST("/new-post", b.auth.RequireAdmin, b.createPost)
	router.GET("/edit-post/:id", b.auth.RequireAdmin, b.editPost)
	router.POST("/edit-post/:id", b.auth.RequireAdmin, b.updatePost)
	router.GET("/delete/:id", b.auth.RequireAdmin, b.deletePost)
	router.GET("/delete-comment/:id", b.auth.RequireAdmin, b.deleteComment)
}

func (b *Module) index(c *gin.Context) {
	posts, err := b.store.ListPosts()
	if err != nil {
		b.errorPage(c, http.StatusInternalServerError, "Could not load posts.")
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"posts":   posts,
		"user":    b.auth.CurrentIdentity(c),
		"date":    auth.Dateline(),
		"flashes": auth.Flashes(c),
	})
}

func (b *Module) showPost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		b.errorPage(c, http.StatusNotFound, "Post not found.")
		return
	}

	post, err := b.store.GetPost(id)
	if errors.Is(err, ErrNotFound) {
		b.errorPage(c, http.StatusNotFound, "Post not found.")
		return
	}
	if err != nil {
		b.errorPage(c, http.StatusInternalServerError, "Could not load post.")
		return
	}

	c.HTML(http.StatusOK, "post.html", gin.H{
		"post":     post,
		"bodyHTML": renderBody(post.Body),
		"user":     b.auth.CurrentIdentity(c),
		"date":     auth.Dateline(),
		"flashes":  auth.Flashes(c),
	})
}

func (b *Module) addComment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		b.errorPage(c, http.StatusNotFound, "Post not found.")
		return
	}

	account := c.MustGet("identity").(auth.Account)

	text := strings.TrimSpace(c.PostForm("comment"))
	if text == "" {
		c.Redirect(http.StatusFound, "/post/"+c.Param("id"))
		return
	}

	if _, err := b.store.AddComment(id, account.User, text); err != nil {
		if errors.Is(err, ErrNotFound) {
			b.errorPage(c, http.StatusNotFound, "Post not found.")
			return
		}
		b.errorPage(c, http.StatusInternalServerError, "Could not save comment.")
		return
	}

	c.Redirect(http.StatusFound, "/post/"+c.Param("id"))
}

func (b *Module) newPost(c *gin.Context) {
	c.HTML(http.StatusOK, "make-post.html", gin.H{
		"user": c.MustGet("identity"),
		"date": auth.Dateline(),
	})
}

func (b *Module) createPost(c *gin.Context) {
	account := c.MustGet("identity").(auth.Account)
	fields := postFormFields(c)

	_, err := b.store.CreatePost(fields, account.User)
	if errors.Is(err, ErrDuplicateTitle) {
		c.HTML(http.StatusBadRequest, "make-post.html", gin.H{
			"error":  "A post with that title already exists.",
			"fields": fields,
			"user":   account,
			"date":   auth.Dateline(),
		})
		return
	}
	if err != nil {
		b.errorPage(c, http.StatusInternalServerError, "Could not create post.")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (b *Module) editPost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		b.errorPage(c, http.StatusNotFound, "Post not found.")
		return
	}

	post, err := b.store.GetPost(id)
	if errors.Is(err, ErrNotFound) {
		b.errorPage(c, http.StatusNotFound, "Post not found.")
		return
	}
	if err != nil {
		b.errorPage(c, http.StatusInternalServerError, "Could not load post.")
		return
	}

	c.HTML(http.StatusOK, "make-post.html", gin.H{
		"isEdit": true,
		"postID": post.ID,
		"fields": PostFields{
			Title:    post.Title,
			Subtitle: post.Subtitle,
			ImgURL:   post.ImgURL,
			Body:     post.Body,
		},
		"user": c.MustGet("identity"),
		"date": auth.Dateline(),
	})
}

func (b *Module) updatePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		b.errorPage(c, http.StatusNotFound, "Post not found.")
		return
	}

	fields := postFormFields(c)

	_, err = b.store.UpdatePost(id, fields)
	switch {
	case errors.Is(err, ErrNotFound):
		b.errorPage(c, http.StatusNotFound, "Post not found.")
		return
	case errors.Is(err, ErrDuplicateTitle):
		c.HTML(http.StatusBadRequest, "make-post.html", gin.H{
			"isEdit": true,
			"postID": id,
			"error":  "A post with that title already exists.",
			"fields": fields,
			"user":   c.MustGet("identity"),
			"date":   auth.Dateline(),
		})
		return
	case err != nil:
		b.errorPage(c, http.StatusInternalServerError, "Could not update post.")
		return
	}

	c.Redirect(http.StatusFound, "/post/"+strconv.Itoa(id))
}

func (b *Module) deletePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		b.errorPage(c, http.StatusNotFound, "Post not found.")
		return
	}

	if err := b.store.DeletePost(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			b.errorPage(c, http.StatusNotFound, "Post not found.")
			return
		}
		b.errorPage(c, http.StatusInternalServerError, "Could not delete post.")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (b *Module) deleteComment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		b.errorPage(c, http.StatusNotFound, "Comment not found.")
		return
	}

	if err := b.store.DeleteComment(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			b.errorPage(c, http.StatusNotFound, "Comment not found.")
			return
		}
		b.errorPage(c, http.StatusInternalServerError, "Could not delete comment.")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (b *Module) errorPage(c *gin.Context, code int, message string) {
	c.HTML(code, "error.html", gin.H{
		"code":  code,
		"error": message,
		"user":  b.auth.CurrentIdentity(c),
		"date":  auth.Dateline(),
	})
}

func postFormFields(c *gin.Context) PostFields {
	return PostFields{
		Title:    strings.TrimSpace(c.PostForm("title")),
		Subtitle: strings.TrimSpace(c.PostForm("subtitle")),
		ImgURL:   strings.TrimSpace(c.PostForm("img_url")),
		Body:     c.PostForm("body"),
	}
}
