package model

import "time"

// Product categories accepted by the catalog.
const (
	CategoryElectronics = "Electronics"
	CategoryClothing    = "Clothing"
	CategoryHome        = "Home"
	CategoryBooks       = "Books"
	CategorySports      = "Sports"
	CategoryOther       = "Other"
)

const (
	DefaultPageSize = 8
	MaxPageSize     = 100
)

// Product is a catalog item
type Product struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Price         float64   `json:"price"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	ImagePublicID *string   `json:"imagePublicId,omitempty"` // Remote asset id, nil for external URLs
	Category      string    `json:"category"`
	CreatedBy     int64     `json:"createdBy"`
	Rating        float64   `json:"rating"`
	NumReviews    int       `json:"numReviews"`
	CountInStock  int       `json:"countInStock"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProductCreator is the populated owner of a product.
type ProductCreator struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProductDetail is a product with its creator populated
type ProductDetail struct {
	Product
	Creator *ProductCreator `json:"creator,omitempty"`
}

type CreateProductRequest struct {
	Title         string  `json:"title" binding:"required,max=100"`
	Price         float64 `json:"price" binding:"gte=0"`
	Description   string  `json:"description" binding:"required,max=1000"`
	Image         string  `json:"image" binding:"required"`
	ImagePublicID *string `json:"imagePublicId"`
	Category      string  `json:"category" binding:"required,oneof=Electronics Clothing Home Books Sports Other"`
	CountInStock  int     `json:"countInStock" binding:"gte=0"`
}

// UpdateProductRequest uses pointers to allow partial updates
type UpdateProductRequest struct {
	Title         *string  `json:"title,omitempty" binding:"omitempty,min=1,max=100"`
	Price         *float64 `json:"price,omitempty" binding:"omitempty,gte=0"`
	Description   *string  `json:"description,omitempty" binding:"omitempty,min=1,max=1000"`
	Image         *string  `json:"image,omitempty" binding:"omitempty,min=1"`
	ImagePublicID *string  `json:"imagePublicId,omitempty"`
	Category      *string  `json:"category,omitempty" binding:"omitempty,oneof=Electronics Clothing Home Books Sports Other"`
	CountInStock  *int     `json:"countInStock,omitempty" binding:"omitempty,gte=0"`
}

// ProductFilters holds list query parameters
type ProductFilters struct {
	Search string
	Page   int
	Limit  int
}

// Normalize applies the default and maximum page sizes.
func (f *ProductFilters) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Page <= 0 {
		f.Page = 1
	}
}

// ProductPage is a page of products plus pagination metadata
type ProductPage struct {
	Products    []Product `json:"products"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	TotalCount  int64     `json:"totalCount"`
}
