package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"micro_marketplace/internal/model"
	"micro_marketplace/internal/repository"
)

// ProductService defines catalog and favorites operations
type ProductService interface {
	List(ctx context.Context, filters model.ProductFilters) (*model.ProductPage, error)
	Get(ctx context.Context, id int64) (*model.ProductDetail, error)
	Create(ctx context.Context, userID int64, req model.CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, id, userID int64, req model.UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id, userID int64) error
	AddFavorite(ctx context.Context, userID, productID int64) error
	RemoveFavorite(ctx context.Context, userID, productID int64) error
}

type productService struct {
	repo     repository.ProductRepository
	userRepo repository.UserRepository
	uploads  UploadService
	log      zerolog.Logger
}

// NewProductService creates a new ProductService
func NewProductService(repo repository.ProductRepository, userRepo repository.UserRepository, uploads UploadService, log zerolog.Logger) ProductService {
	return &productService{repo: repo, userRepo: userRepo, uploads: uploads, log: log}
}

func (s *productService) List(ctx context.Context, filters model.ProductFilters) (*model.ProductPage, error) {
	filters.Normalize()
	products, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &model.ProductPage{
		Products:    products,
		TotalPages:  int((total + int64(filters.Limit) - 1) / int64(filters.Limit)),
		CurrentPage: filters.Page,
		TotalCount:  total,
	}, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*model.ProductDetail, error) {
	d, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if d == nil {
		return nil, ErrProductNotFound
	}
	return d, nil
}

func (s *productService) Create(ctx context.Context, userID int64, req model.CreateProductRequest) (*model.Product, error) {
	if isBlank(&req.Title) || isBlank(&req.Description) {
		return nil, ErrBlankField
	}
	p := &model.Product{
		Title:         strings.TrimSpace(req.Title),
		Price:         req.Price,
		Description:   strings.TrimSpace(req.Description),
		Image:         req.Image,
		ImagePublicID: blankToNil(req.ImagePublicID),
		Category:      req.Category,
		CreatedBy:     userID,
		CountInStock:  req.CountInStock,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// ownedProduct loads a product and checks that userID created it.
func (s *productService) ownedProduct(ctx context.Context, id, userID int64) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	if p.CreatedBy != userID {
		return nil, ErrForbidden
	}
	return p, nil
}

// Update applies a partial update. Replacing the image removes the previous
// remote asset once the new row is stored.
func (s *productService) Update(ctx context.Context, id, userID int64, req model.UpdateProductRequest) (*model.Product, error) {
	if isBlank(req.Title) || isBlank(req.Description) {
		return nil, ErrBlankField
	}

	p, err := s.ownedProduct(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	oldPublicID := ""
	if p.ImagePublicID != nil {
		oldPublicID = *p.ImagePublicID
	}

	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.CountInStock != nil {
		p.CountInStock = *req.CountInStock
	}
	// The public id only changes together with the image URL, except that an
	// image without one may have it attached.
	if req.Image != nil && *req.Image != p.Image {
		p.Image = *req.Image
		p.ImagePublicID = blankToNil(req.ImagePublicID)
	} else if p.ImagePublicID == nil {
		p.ImagePublicID = blankToNil(req.ImagePublicID)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if oldPublicID != "" && (p.ImagePublicID == nil || *p.ImagePublicID != oldPublicID) {
		s.uploads.RemoveRemoteAsset(ctx, oldPublicID)
	}
	return p, nil
}

// Delete removes the product, then its image asset on a best-effort basis.
func (s *productService) Delete(ctx context.Context, id, userID int64) error {
	p, err := s.ownedProduct(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if p.ImagePublicID != nil {
		s.uploads.RemoveRemoteAsset(ctx, *p.ImagePublicID)
	}
	s.log.Info().Int64("product_id", id).Int64("user_id", userID).Msg("product deleted")
	return nil
}

func (s *productService) AddFavorite(ctx context.Context, userID, productID int64) error {
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to find product: %w", err)
	}
	if p == nil {
		return ErrProductNotFound
	}
	if err := s.userRepo.AddFavorite(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (s *productService) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	if err := s.userRepo.RemoveFavorite(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// isBlank reports whether a provided value is empty after trimming. A nil
// pointer means the field was not sent.
func isBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) == ""
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
