package handlers

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"unicode/utf8"

	"shopadmin/internal/models"
	"shopadmin/internal/richtext"
)

// Validation limits for product and category fields.
const (
	maxProductNameLen = 100
	minDescriptionLen = 10
	maxDescriptionLen = 500
	maxDetailLen      = 100_000
	maxBadges         = 5
	maxBadgeLen       = 20
	maxImages         = 10
	maxQuantity       = 999
	maxPrice          = 10_000_000
	maxImageURLLen    = 2048
)

// categoryInput is the body of category create and update requests.
type categoryInput struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

// normalize trims the name and returns the first validation error found.
func (in *categoryInput) normalize() string {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return "Category name is required."
	}
	if utf8.RuneCountInString(in.Name) > models.MaxCategoryNameLen {
		return fmt.Sprintf("Category name is too long (max %d characters).", models.MaxCategoryNameLen)
	}
	if in.ParentID != nil && *in.ParentID <= 0 {
		return "Invalid parent category."
	}
	return ""
}

// productInput is the body of product create and update requests.
// ImageURLs is the full desired gallery in display order; omitting it on
// update leaves the gallery untouched.
type productInput struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	DetailDescription string   `json:"detail_description"`
	Price             float64  `json:"price"`
	DiscountRate      float64  `json:"discount_rate"`
	Quantity          int      `json:"quantity"`
	IsPublished       bool     `json:"is_published"`
	CategoryID        int64    `json:"category_id"`
	Badges            []string `json:"badges"`
	ImageURLs         []string `json:"image_urls"`
}

// normalize cleans the input in place and returns the first validation
// error found. Price is floored to whole units, the discount rate is
// clamped to 0..100 and the detail description is sanitized.
func (in *productInput) normalize() string {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return "Product name is required."
	}
	if utf8.RuneCountInString(in.Name) > maxProductNameLen {
		return fmt.Sprintf("Product name is too long (max %d characters).", maxProductNameLen)
	}

	in.Description = strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(in.Description) < minDescriptionLen {
		return fmt.Sprintf("Description must be at least %d characters.", minDescriptionLen)
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		return fmt.Sprintf("Description is too long (max %d characters).", maxDescriptionLen)
	}

	if len(in.DetailDescription) > maxDetailLen {
		return "Detail description is too long."
	}
	in.DetailDescription = richtext.Sanitize(in.DetailDescription)

	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return "Price must be a number."
	}
	in.Price = math.Floor(in.Price)
	if in.Price < 0 {
		return "Price cannot be negative."
	}
	if in.Price > maxPrice {
		return fmt.Sprintf("Price cannot exceed %d.", maxPrice)
	}

	if math.IsNaN(in.DiscountRate) {
		in.DiscountRate = 0
	}
	in.DiscountRate = math.Min(math.Max(math.Floor(in.DiscountRate), 0), 100)

	if in.Quantity < 0 || in.Quantity > maxQuantity {
		return fmt.Sprintf("Quantity must be between 0 and %d.", maxQuantity)
	}

	if in.CategoryID <= 0 {
		return "Category is required."
	}

	in.Badges = cleanBadges(in.Badges)
	if len(in.Badges) > maxBadges {
		return fmt.Sprintf("At most %d badges are allowed.", maxBadges)
	}
	for _, b := range in.Badges {
		if utf8.RuneCountInString(b) > maxBadgeLen {
			return fmt.Sprintf("Badge %q is too long (max %d characters).", b, maxBadgeLen)
		}
	}

	return in.validateImages()
}

// validateImages trims the desired gallery and checks its size and URLs.
// A nil list is valid and means "leave the gallery alone".
func (in *productInput) validateImages() string {
	if len(in.ImageURLs) > maxImages {
		return fmt.Sprintf("At most %d images are allowed.", maxImages)
	}
	for i, u := range in.ImageURLs {
		in.ImageURLs[i] = strings.TrimSpace(u)
		if !validImageURL(in.ImageURLs[i]) {
			return fmt.Sprintf("Image %d is not a valid URL.", i+1)
		}
	}
	return ""
}

// requireImages rejects a product saved without images. On update a
// missing list keeps the current gallery, so only an explicit empty list
// is refused.
func (in *productInput) requireImages(creating bool) string {
	if len(in.ImageURLs) == 0 && (creating || in.ImageURLs != nil) {
		return "At least one image is required."
	}
	return ""
}

// product maps the normalized input onto a product record.
func (in *productInput) product() *models.Product {
	return &models.Product{
		Name:              in.Name,
		Description:       in.Description,
		DetailDescription: in.DetailDescription,
		Price:             int64(in.Price),
		DiscountRate:      int(in.DiscountRate),
		Quantity:          in.Quantity,
		IsPublished:       in.IsPublished,
		CategoryID:        in.CategoryID,
		Badges:            in.Badges,
	}
}

// cleanBadges trims every badge and drops empty ones.
func cleanBadges(badges []string) []string {
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// validImageURL accepts absolute http(s) URLs only.
func validImageURL(raw string) bool {
	if raw == "" || len(raw) > maxImageURLLen {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
