package site

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkwell/auth"
	"inkwell/models"
)

type Module struct {
	db   *gorm.DB
	auth *auth.Module
}

func NewSiteModule(db *gorm.DB, authModule *auth.Module) *Module {
	return &Module{db: db, auth: authModule}
}

func (s *Module) RegisterRoutes(router *gin.Engine) {
	router.GET("/about", s.about)
	router.GET("/contact", s.contact)
	router.GET("/favicon.ico", s.favicon)
	router.GET("/sitemap.xml", s.sitemap)
}

func (s *Module) about(c *gin.Context) {
	c.HTML(http.StatusOK, "about.html", gin.H{
		"user": s.auth.CurrentIdentity(c),
		"date": auth.Dateline(),
	})
}

func (s *Module) contact(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", gin.H{
		"user": s.auth.CurrentIdentity(c),
		"date": auth.Dateline(),
	})
}

func (s *Module) favicon(c *gin.Context) {
	c.File("./public/img/favicon.ico")
}

func (s *Module) sitemap(c *gin.Context) {
	domain := os.Getenv("DOMAIN")
	if domain == "" {
		domain = "http://localhost:8080"
	}
	domain = strings.TrimSuffix(domain, "/")

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	for _, path := range []string{"/", "/about", "/contact"} {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString("    <loc>" + domain + path + "</loc>\n")
		sitemap.WriteString("    <changefreq>weekly</changefreq>\n")
		sitemap.WriteString("    <priority>0.8</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	var posts []models.Post
	s.db.Order("id ASC").Find(&posts)

	for _, post := range posts {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString("    <loc>" + domain + "/post/" + strconv.Itoa(post.ID) + "</loc>\n")
		sitemap.WriteString("    <changefreq>monthly</changefreq>\n")
		sitemap.WriteString("    <priority>0.6</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	sitemap.WriteString("</urlset>\n")

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, sitemap.String())
}
