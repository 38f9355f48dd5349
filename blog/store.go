package blog

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"inkwell/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateTitle = errors.New("title already taken")
)

// PostFields are the author-editable parts of a post. Author and date are
// set at creation and never replaced by an edit.
type PostFields struct {
	Title    string
	Subtitle string
	ImgURL   string
	Body     string
}

// Store persists posts and comments.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListPosts returns every post, oldest first, with authors loaded.
func (s *Store) ListPosts() ([]models.Post, error) {
	var posts []models.Post
	err := s.db.Preload("Author").Order("id ASC").Find(&posts).Error
	return posts, err
}

func (s *Store) GetPost(id int) (*models.Post, error) {
	var post models.Post
	err := s.db.Preload("Author").
		Preload("Comments").
		Preload("Comments.Author").
		First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) CreatePost(fields PostFields, author *models.User) (*models.Post, error) {
	var existing models.Post
	if err := s.db.Where("title = ?", fields.Title).First(&existing).Error; err == nil {
		return nil, ErrDuplicateTitle
	}

	post := models.Post{
		AuthorID: author.ID,
		Title:    fields.Title,
		Subtitle: fields.Subtitle,
		Body:     fields.Body,
		ImgURL:   fields.ImgURL,
		Date:     time.Now().Format("January 2, 2006"),
	}

	if err := s.db.Create(&post).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}

	return &post, nil
}

// UpdatePost replaces title, subtitle, image URL and body in full.
func (s *Store) UpdatePost(id int, fields PostFields) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var other models.Post
	if err := s.db.Where("title = ? AND id <> ?", fields.Title, id).First(&other).Error; err == nil {
		return nil, ErrDuplicateTitle
	}

	post.Title = fields.Title
	post.Subtitle = fields.Subtitle
	post.ImgURL = fields.ImgURL
	post.Body = fields.Body

	if err := s.db.Save(&post).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}

	return &post, nil
}

// DeletePost removes a post and all of its comments in one transaction.
func (s *Store) DeletePost(id int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) AddComment(postID int, author *models.User, text string) (*models.Comment, error) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Text:     text,
	}

	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	return &comment, nil
}

func (s *Store) DeleteComment(id int) error {
	result := s.db.Delete(&models.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
