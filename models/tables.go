package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int    `gorm:"primary_key;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
	Name         string `json:"name"`
	Role         string `gorm:"not null;default:user" json:"role"` // "user" or "admin"
}

type Post struct {
	ID       int    `gorm:"primary_key;autoIncrement" json:"id"`
	AuthorID int    `gorm:"not null;index" json:"author_id"`
	Author   User   `json:"author"`
	Title    string `gorm:"unique;not null" json:"title"`
	Subtitle string `gorm:"not null" json:"subtitle"`
	Date     string `gorm:"not null" json:"date"` // display string, set once at creation
	Body     string `gorm:"type:text;not null" json:"body"`
	ImgURL   string `gorm:"not null" json:"img_url"`

	Comments []Comment `json:"comments,omitempty"`
}

type Comment struct {
	ID       int    `gorm:"primary_key;autoIncrement" json:"id"`
	AuthorID int    `gorm:"not null;index" json:"author_id"`
	Author   User   `json:"author"`
	PostID   int    `gorm:"not null;index" json:"post_id"`
	Text     string `gorm:"type:text;not null" json:"text"`
}
