package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"mime/multipart"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"Marketplace/internal/models"
	"Marketplace/internal/storage"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100

	// MaxPage keeps (page-1)*per_page inside int for any per_page.
	MaxPage = math.MaxInt / MaxPerPage
)

type ListingFilter struct {
	Name       string `json:"name"`
	Location   string `json:"location"`
	Categories string `json:"categories"`
	Condition  string `json:"condition"`
	Status     string `json:"status"`
}

type PageRequest struct {
	Page    int
	PerPage int
}

func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
}

func newPagination(p PageRequest, total int64, count int) Pagination {
	last := int(math.Ceil(float64(total) / float64(p.PerPage)))
	if last < 1 {
		last = 1
	}
	pg := Pagination{CurrentPage: p.Page, LastPage: last, PerPage: p.PerPage, Total: total}
	if count > 0 {
		from := (p.Page-1)*p.PerPage + 1
		to := from + count - 1
		pg.From, pg.To = &from, &to
	}
	return pg
}

type ListingOwner struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ListingView is a listing as returned to clients.
type ListingView struct {
	models.Listing
	ImageURL *string       `json:"image_url"`
	Owner    *ListingOwner `json:"user,omitempty"`
}

type ListingPage struct {
	Data       []ListingView `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

type ListingInput struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Price       *decimal.Decimal `json:"price"`
	Location    string           `json:"location" validate:"required,max=255"`
	Description string           `json:"description" validate:"required"`
	Categories  string           `json:"categories" validate:"required"`
	Condition   string           `json:"condition" validate:"required"`
}

type ListingUpdate struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Price       *decimal.Decimal `json:"price"`
	Location    *string          `json:"location" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,min=1"`
	Categories  *string          `json:"categories"`
	Condition   *string          `json:"condition"`
}

type FilterOptions struct {
	Categories []models.Category  `json:"categories"`
	Conditions []models.Condition `json:"conditions"`
}

type ListingService struct {
	db     *gorm.DB
	store  storage.ImageStore
	appURL string
}

func NewListingService(db *gorm.DB, store storage.ImageStore, appURL string) *ListingService {
	return &ListingService{db: db, store: store, appURL: strings.TrimRight(appURL, "/")}
}

// ImageURL turns a stored image value into an absolute URL.
func (s *ListingService) ImageURL(image *string) *string {
	return ImageURL(s.appURL, image)
}

func ImageURL(appURL string, image *string) *string {
	if image == nil || *image == "" {
		return nil
	}
	if strings.HasPrefix(*image, "http") {
		u := *image
		return &u
	}
	u := strings.TrimRight(appURL, "/") + "/storage/" + strings.TrimLeft(*image, "/")
	return &u
}

func (s *ListingService) view(l models.Listing, withEmail bool) ListingView {
	v := ListingView{Listing: l, ImageURL: s.ImageURL(l.Image)}
	if l.User.ID != 0 {
		v.Owner = &ListingOwner{ID: l.User.ID, Name: l.User.Name}
		if withEmail {
			v.Owner.Email = l.User.Email
		}
	}
	return v
}

func (s *ListingService) views(ls []models.Listing, withEmail bool) []ListingView {
	out := make([]ListingView, 0, len(ls))
	for _, l := range ls {
		out = append(out, s.view(l, withEmail))
	}
	return out
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

// applyFilter adds one AND predicate per non-empty filter value.
func applyFilter(q *gorm.DB, f ListingFilter) *gorm.DB {
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where(`LOWER(listings.name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(name))+"%")
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q = q.Where(`LOWER(listings.location) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(loc))+"%")
	}
	if c := strings.TrimSpace(f.Categories); c != "" {
		q = q.Where("listings.categories = ?", c)
	}
	if c := strings.TrimSpace(f.Condition); c != "" {
		q = q.Where("listings.condition = ?", c)
	}
	if st := strings.TrimSpace(f.Status); st != "" {
		q = q.Where("listings.status = ?", st)
	}
	return q
}

func (s *ListingService) page(ctx context.Context, f ListingFilter, p PageRequest, withEmail bool, scope func(*gorm.DB) *gorm.DB) (ListingPage, error) {
	p = p.normalize()
	base := applyFilter(s.db.WithContext(ctx).Model(&models.Listing{}), f)
	if scope != nil {
		base = scope(base)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return ListingPage{}, fmt.Errorf("count listings: %w", err)
	}

	var listings []models.Listing
	err := base.Session(&gorm.Session{}).
		Preload("User").
		Order("listings.created_at DESC").
		Order("listings.id DESC").
		Offset((p.Page - 1) * p.PerPage).
		Limit(p.PerPage).
		Find(&listings).Error
	if err != nil {
		return ListingPage{}, fmt.Errorf("fetch listings: %w", err)
	}

	return ListingPage{
		Data:       s.views(listings, withEmail),
		Pagination: newPagination(p, total, len(listings)),
	}, nil
}

// Search returns listings matching every non-empty filter, newest first.
func (s *ListingService) Search(ctx context.Context, f ListingFilter, p PageRequest) (ListingPage, error) {
	return s.page(ctx, f, p, false, nil)
}

// Index lists all listings, optionally restricted to one status.
func (s *ListingService) Index(ctx context.Context, status string, p PageRequest) (ListingPage, error) {
	return s.page(ctx, ListingFilter{Status: status}, p, false, nil)
}

// AdminIndex is Index with owner emails included.
func (s *ListingService) AdminIndex(ctx context.Context, status string, p PageRequest) (ListingPage, error) {
	return s.page(ctx, ListingFilter{Status: status}, p, true, nil)
}

func (s *ListingService) ByUser(ctx context.Context, userID uint, p PageRequest) (ListingPage, error) {
	return s.page(ctx, ListingFilter{}, p, false, func(q *gorm.DB) *gorm.DB {
		return q.Where("listings.user_id = ?", userID)
	})
}

func (s *ListingService) FilterOptions() FilterOptions {
	return FilterOptions{Categories: models.Categories, Conditions: models.Conditions}
}

func (s *ListingService) find(ctx context.Context, id uint) (models.Listing, error) {
	var listing models.Listing
	err := s.db.WithContext(ctx).Preload("User").First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Listing{}, fmt.Errorf("listing %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Listing{}, fmt.Errorf("find listing: %w", err)
	}
	return listing, nil
}

func (s *ListingService) Get(ctx context.Context, id uint) (ListingView, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return ListingView{}, err
	}
	return s.view(listing, false), nil
}

func checkPrice(verr *ValidationError, price *decimal.Decimal, required bool) {
	if price == nil {
		if required {
			verr.Add("price", "The price field is required.")
		}
		return
	}
	if price.IsNegative() {
		verr.Add("price", "The price field must be at least 0.")
	}
	if price.GreaterThan(maxPrice) {
		verr.Add("price", "The price field must not be greater than 99999999.99.")
	}
}

// decimal(10,2) upper bound
var maxPrice = decimal.RequireFromString("99999999.99")

func checkCategory(verr *ValidationError, c *string) {
	if c != nil && *c != "" && !models.Category(*c).Valid() {
		verr.Add("categories", "The selected categories is invalid.")
	}
}

func checkCondition(verr *ValidationError, c *string) {
	if c != nil && *c != "" && !models.Condition(*c).Valid() {
		verr.Add("condition", "The selected condition is invalid.")
	}
}

func collect(err error) (*ValidationError, error) {
	verr := &ValidationError{}
	if err == nil {
		return verr, nil
	}
	if errors.As(err, &verr) {
		return verr, nil
	}
	return nil, err
}

func checkListingImage(verr *ValidationError, image *multipart.FileHeader) {
	if image == nil {
		return
	}
	if _, err := storage.ListingImageRule.Check(image); err != nil {
		verr.Add("image", imageMessage(err, "jpg, jpeg, png", "5120 kilobytes"))
	}
}

// Create stores a new pending listing owned by ownerID.
func (s *ListingService) Create(ctx context.Context, ownerID uint, in ListingInput, image *multipart.FileHeader) (ListingView, error) {
	verr, err := collect(Validate(in))
	if err != nil {
		return ListingView{}, err
	}
	checkPrice(verr, in.Price, true)
	checkCategory(verr, &in.Categories)
	checkCondition(verr, &in.Condition)
	checkListingImage(verr, image)
	if len(verr.Fields) > 0 {
		return ListingView{}, verr
	}

	listing := models.Listing{
		UserID:      ownerID,
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price.Round(2),
		Location:    strings.TrimSpace(in.Location),
		Description: in.Description,
		Categories:  models.Category(in.Categories),
		Condition:   models.Condition(in.Condition),
		Status:      models.ListingPending,
	}
	if image != nil {
		stored, err := s.store.Upload(ctx, image, "listings")
		if err != nil {
			return ListingView{}, uploadError(err)
		}
		listing.Image = &stored
	}

	if err := s.db.WithContext(ctx).Create(&listing).Error; err != nil {
		s.discard(ctx, listing.Image)
		return ListingView{}, fmt.Errorf("failed to create listing: %w", err)
	}
	return s.Get(ctx, listing.ID)
}

// Update changes an owned listing. Ownership is checked before any mutation.
func (s *ListingService) Update(ctx context.Context, callerID, id uint, in ListingUpdate, image *multipart.FileHeader) (ListingView, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return ListingView{}, err
	}
	if listing.UserID != callerID {
		return ListingView{}, fmt.Errorf("update listing %d: %w", id, ErrForbidden)
	}

	verr, err := collect(Validate(in))
	if err != nil {
		return ListingView{}, err
	}
	checkPrice(verr, in.Price, false)
	checkCategory(verr, in.Categories)
	checkCondition(verr, in.Condition)
	checkListingImage(verr, image)
	if len(verr.Fields) > 0 {
		return ListingView{}, verr
	}

	if in.Name != nil {
		listing.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		listing.Price = in.Price.Round(2)
	}
	if in.Location != nil {
		listing.Location = strings.TrimSpace(*in.Location)
	}
	if in.Description != nil {
		listing.Description = *in.Description
	}
	if in.Categories != nil && *in.Categories != "" {
		listing.Categories = models.Category(*in.Categories)
	}
	if in.Condition != nil && *in.Condition != "" {
		listing.Condition = models.Condition(*in.Condition)
	}

	var previous *string
	if image != nil {
		stored, err := s.store.Upload(ctx, image, "listings")
		if err != nil {
			return ListingView{}, uploadError(err)
		}
		previous = listing.Image
		listing.Image = &stored
	}

	if err := s.db.WithContext(ctx).Omit("User").Save(&listing).Error; err != nil {
		return ListingView{}, fmt.Errorf("failed to update listing: %w", err)
	}
	s.discard(ctx, previous)
	return s.view(listing, false), nil
}

// Delete removes an owned listing and its image.
func (s *ListingService) Delete(ctx context.Context, callerID, id uint) error {
	listing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if listing.UserID != callerID {
		return fmt.Errorf("delete listing %d: %w", id, ErrForbidden)
	}
	if err := s.db.WithContext(ctx).Delete(&models.Listing{}, listing.ID).Error; err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	s.discard(ctx, listing.Image)
	return nil
}

func (s *ListingService) discard(ctx context.Context, image *string) {
	if image == nil || *image == "" || strings.HasPrefix(*image, "https://picsum.photos/") {
		return
	}
	if err := s.store.Delete(ctx, *image); err != nil {
		log.Printf("⚠️  Failed to delete image %q: %v", *image, err)
	}
}

type ModerationInput struct {
	Status          string  `json:"status" validate:"required,oneof=pending approved rejected"`
	RejectionReason *string `json:"rejection_reason" validate:"omitempty,max=1000"`
}

// SetStatus moves a listing to any status. The reason is kept only for rejections.
func (s *ListingService) SetStatus(ctx context.Context, id uint, in ModerationInput) (ListingView, error) {
	if err := Validate(in); err != nil {
		return ListingView{}, err
	}
	listing, err := s.find(ctx, id)
	if err != nil {
		return ListingView{}, err
	}

	listing.Status = models.ListingStatus(in.Status)
	listing.RejectionReason = nil
	if listing.Status == models.ListingRejected && in.RejectionReason != nil && strings.TrimSpace(*in.RejectionReason) != "" {
		reason := strings.TrimSpace(*in.RejectionReason)
		listing.RejectionReason = &reason
	}

	listing.UpdatedAt = time.Now()

	err = s.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", listing.ID).
		Updates(map[string]any{
			"status":           listing.Status,
			"rejection_reason": listing.RejectionReason,
			"updated_at":       listing.UpdatedAt,
		}).Error
	if err != nil {
		return ListingView{}, fmt.Errorf("failed to update listing status: %w", err)
	}
	return s.view(listing, false), nil
}

type ListingStats struct {
	Total          int64         `json:"total"`
	Pending        int64         `json:"pending"`
	Approved       int64         `json:"approved"`
	Rejected       int64         `json:"rejected"`
	RecentListings []ListingView `json:"recent_listings"`
}

func (s *ListingService) Stats(ctx context.Context) (ListingStats, error) {
	db := s.db.WithContext(ctx)

	var rows []struct {
		Status models.ListingStatus
		Count  int64
	}
	if err := db.Model(&models.Listing{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return ListingStats{}, fmt.Errorf("count listings by status: %w", err)
	}

	var stats ListingStats
	for _, r := range rows {
		stats.Total += r.Count
		switch r.Status {
		case models.ListingPending:
			stats.Pending = r.Count
		case models.ListingApproved:
			stats.Approved = r.Count
		case models.ListingRejected:
			stats.Rejected = r.Count
		}
	}

	var recent []models.Listing
	if err := db.Preload("User").Order("created_at DESC").Order("id DESC").Limit(5).Find(&recent).Error; err != nil {
		return ListingStats{}, fmt.Errorf("fetch recent listings: %w", err)
	}
	stats.RecentListings = s.views(recent, true)
	return stats, nil
}
