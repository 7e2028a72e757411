package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"Marketplace/internal/models"
	"Marketplace/internal/storage"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin seller buyer"`
	SetupKey string `json:"setup_key"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Email   string  `json:"email" validate:"required,email,max=255"`
	Age     *int    `json:"age" validate:"omitempty,min=1,max=120"`
	Sex     *string `json:"sex" validate:"omitempty,oneof=male female other"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	City    *string `json:"city" validate:"omitempty,max=100"`
	State   *string `json:"state" validate:"omitempty,max=100"`
	Country *string `json:"country" validate:"omitempty,max=100"`
}

type UserService struct {
	db            *gorm.DB
	tokens        *TokenService
	denylist      Denylist
	store         storage.ImageStore
	adminSetupKey string
}

func NewUserService(db *gorm.DB, tokens *TokenService, denylist Denylist, store storage.ImageStore, adminSetupKey string) *UserService {
	return &UserService{
		db:            db,
		tokens:        tokens,
		denylist:      denylist,
		store:         store,
		adminSetupKey: adminSetupKey,
	}
}

// Register creates an account. Admin accounts require the configured setup key.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := Validate(in); err != nil {
		return models.User{}, err
	}

	role := models.Role(in.Role)
	if role == "" {
		role = models.RoleBuyer
	}
	if role == models.RoleAdmin && (s.adminSetupKey == "" || in.SetupKey != s.adminSetupKey) {
		return models.User{}, fmt.Errorf("admin registration: %w", ErrForbidden)
	}

	return s.createUser(ctx, in.Name, in.Email, in.Password, role)
}

// CreateAdmin bypasses the setup key; used by the CLI.
func (s *UserService) CreateAdmin(ctx context.Context, name, email, password string) (models.User, error) {
	in := RegisterInput{Name: name, Email: normalizeEmail(email), Password: password, Role: string(models.RoleAdmin)}
	if err := Validate(in); err != nil {
		return models.User{}, err
	}
	return s.createUser(ctx, in.Name, in.Email, in.Password, models.RoleAdmin)
}

func (s *UserService) createUser(ctx context.Context, name, email, password string, role models.Role) (models.User, error) {
	db := s.db.WithContext(ctx)

	taken, err := s.emailTaken(db, email, 0)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, emailTakenError()
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to process password: %w", err)
	}

	user := models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (models.User, string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := Validate(in); err != nil {
		return models.User{}, "", err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *UserService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *UserService) Get(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies in to the caller's profile. Nil optional fields are left unchanged.
// A new image replaces the previous one.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileInput, image *multipart.FileHeader) (models.User, error) {
	in.Email = normalizeEmail(in.Email)
	verr := &ValidationError{}
	if err := Validate(in); err != nil {
		if !errors.As(err, &verr) {
			return models.User{}, err
		}
	}
	if image != nil {
		if _, err := storage.ProfileImageRule.Check(image); err != nil {
			verr.Add("image", imageMessage(err, "jpeg, png, gif", "2048 kilobytes"))
		}
	}
	if len(verr.Fields) > 0 {
		return models.User{}, verr
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	db := s.db.WithContext(ctx)
	taken, err := s.emailTaken(db, in.Email, id)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, emailTakenError()
	}

	user.Name = strings.TrimSpace(in.Name)
	user.Email = in.Email
	if in.Age != nil {
		user.Age = in.Age
	}
	if in.Sex != nil {
		sex := models.Sex(*in.Sex)
		user.Sex = &sex
	}
	setIfPresent(&user.Phone, in.Phone)
	setIfPresent(&user.Address, in.Address)
	setIfPresent(&user.City, in.City)
	setIfPresent(&user.State, in.State)
	setIfPresent(&user.Country, in.Country)

	var previous *string
	if image != nil {
		stored, err := s.store.Upload(ctx, image, "profile_images")
		if err != nil {
			return models.User{}, uploadError(err)
		}
		previous = user.Image
		user.Image = &stored
	}

	if err := db.Save(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("failed to update profile: %w", err)
	}

	if previous != nil && *previous != "" {
		if err := s.store.Delete(ctx, *previous); err != nil {
			log.Printf("⚠️  Failed to delete old profile image %q: %v", *previous, err)
		}
	}
	return user, nil
}

func (s *UserService) emailTaken(db *gorm.DB, email string, ignoreID uint) (bool, error) {
	var count int64
	q := db.Model(&models.User{}).Where("email = ?", email)
	if ignoreID != 0 {
		q = q.Where("id <> ?", ignoreID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func emailTakenError() error {
	return fmt.Errorf("%w: %w", ErrEmailTaken, NewValidationError("email", "The email has already been taken."))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func setIfPresent(dst **string, v *string) {
	if v == nil {
		return
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		*dst = nil
		return
	}
	*dst = &trimmed
}

func imageMessage(err error, mimes, size string) string {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return "The image field must not be greater than " + size + "."
	case errors.Is(err, storage.ErrUnsupportedType):
		return "The image field must be a file of type: " + mimes + "."
	default:
		return "The image failed to upload."
	}
}

func uploadError(err error) error {
	if errors.Is(err, storage.ErrDisabled) {
		return NewValidationError("image", "Image uploads are not enabled.")
	}
	return fmt.Errorf("upload image: %w", err)
}
