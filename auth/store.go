package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell/models"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotFound       = errors.New("user not found")
	ErrBadPassword    = errors.New("password mismatch")
)

// Store persists user identities and their hashed credentials.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Register creates a user with role "user". The password is stored only as a
// bcrypt hash (salt embedded).
func (s *Store) Register(email, name, password string) (*models.User, error) {
	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	if err := s.db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return &user, nil
}

// Verify checks a plaintext password against the stored hash. The caller maps
// ErrNotFound and ErrBadPassword to user-visible messages.
func (s *Store) Verify(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !checkPasswordHash(password, user.PasswordHash) {
		return nil, ErrBadPassword
	}

	return &user, nil
}

// Promote elevates a user to admin. One-way; reports false without touching
// the row when the user is already admin.
func (s *Store) Promote(user *models.User) (bool, error) {
	if user.Role == models.RoleAdmin {
		return false, nil
	}

	user.Role = models.RoleAdmin
	if err := s.db.Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		return false, err
	}

	return true, nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
