package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"micro_marketplace/internal/model"

	"github.com/jackc/pgx/v5"
)

// ProductRepository defines operations for catalog data
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	FindDetailByID(ctx context.Context, id int64) (*model.ProductDetail, error)
	List(ctx context.Context, filters model.ProductFilters) ([]model.Product, int64, error)
	ListFavorites(ctx context.Context, userID int64) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id int64) error
}

const productColumns = `id, title, price, description, image, image_public_id, category, created_by,
        rating, num_reviews, count_in_stock, created_at, updated_at`

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID, &p.Title, &p.Price, &p.Description, &p.Image, &p.ImagePublicID, &p.Category, &p.CreatedBy,
		&p.Rating, &p.NumReviews, &p.CountInStock, &p.CreatedAt, &p.UpdatedAt,
	)
}

// Create inserts a new product
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	sql := `INSERT INTO products (title, price, description, image, image_public_id, category, created_by, count_in_stock)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, rating, num_reviews, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql,
		p.Title, p.Price, p.Description, p.Image, p.ImagePublicID, p.Category, p.CreatedBy, p.CountInStock,
	).Scan(&p.ID, &p.Rating, &p.NumReviews, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID retrieves a product by its ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	p := &model.Product{}
	err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

// FindDetailByID retrieves a product together with its creator
func (r *productRepository) FindDetailByID(ctx context.Context, id int64) (*model.ProductDetail, error) {
	d := &model.ProductDetail{}
	var creatorName, creatorEmail *string
	sql := `SELECT p.id, p.title, p.price, p.description, p.image, p.image_public_id, p.category, p.created_by,
                   p.rating, p.num_reviews, p.count_in_stock, p.created_at, p.updated_at, u.name, u.email
            FROM products p LEFT JOIN users u ON u.id = p.created_by
            WHERE p.id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(
		&d.ID, &d.Title, &d.Price, &d.Description, &d.Image, &d.ImagePublicID, &d.Category, &d.CreatedBy,
		&d.Rating, &d.NumReviews, &d.CountInStock, &d.CreatedAt, &d.UpdatedAt, &creatorName, &creatorEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product detail: %w", err)
	}
	if creatorName != nil && creatorEmail != nil {
		d.Creator = &model.ProductCreator{ID: d.CreatedBy, Name: *creatorName, Email: *creatorEmail}
	}
	return d, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns one page of products, newest first, and the total match count.
// Search matches title or description case-insensitively.
func (r *productRepository) List(ctx context.Context, filters model.ProductFilters) ([]model.Product, int64, error) {
	filters.Normalize()

	var where string
	args := []interface{}{}
	argCount := 1
	if search := strings.TrimSpace(filters.Search); search != "" {
		where = fmt.Sprintf(" WHERE (title ILIKE $%d OR description ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
		argCount++
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + ` FROM products`)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.Limit, (filters.Page-1)*filters.Limit)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListFavorites returns the products a user has favorited, oldest favorite first
func (r *productRepository) ListFavorites(ctx context.Context, userID int64) ([]model.Product, error) {
	sql := `SELECT p.id, p.title, p.price, p.description, p.image, p.image_public_id, p.category, p.created_by,
                   p.rating, p.num_reviews, p.count_in_stock, p.created_at, p.updated_at
            FROM products p JOIN user_favorites f ON f.product_id = p.id
            WHERE f.user_id = $1 ORDER BY f.created_at`
	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorite products: %w", err)
	}
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

// Update writes all mutable fields of an existing product
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	sql := `UPDATE products
            SET title = $1, price = $2, description = $3, image = $4, image_public_id = $5, category = $6, count_in_stock = $7
            WHERE id = $8 RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql,
		p.Title, p.Price, p.Description, p.Image, p.ImagePublicID, p.Category, p.CountInStock, p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %d not found for update", p.ID)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Delete removes a product; favorites referencing it cascade
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("product %d not found for deletion", id)
	}
	return nil
}
