package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"micro_marketplace/internal/middleware"
	"micro_marketplace/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	args := m.Called(ctx, name, email, password)
	u, _ := args.Get(0).(*model.User)
	return u, args.String(1), args.Error(2)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*model.User)
	return u, args.String(1), args.Error(2)
}

func (m *mockAuthService) Profile(ctx context.Context, userID int64) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*model.Profile)
	return p, args.Error(1)
}

func (m *mockAuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	return m.Called(ctx, userID, currentPassword, newPassword).Error(0)
}

func (m *mockAuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*model.User, bool, error) {
	args := m.Called(ctx, name, email, password)
	u, _ := args.Get(0).(*model.User)
	return u, args.Bool(1), args.Error(2)
}

type mockProductService struct{ mock.Mock }

func (m *mockProductService) List(ctx context.Context, filters model.ProductFilters) (*model.ProductPage, error) {
	args := m.Called(ctx, filters)
	p, _ := args.Get(0).(*model.ProductPage)
	return p, args.Error(1)
}

func (m *mockProductService) Get(ctx context.Context, id int64) (*model.ProductDetail, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*model.ProductDetail)
	return d, args.Error(1)
}

func (m *mockProductService) Create(ctx context.Context, userID int64, req model.CreateProductRequest) (*model.Product, error) {
	args := m.Called(ctx, userID, req)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *mockProductService) Update(ctx context.Context, id, userID int64, req model.UpdateProductRequest) (*model.Product, error) {
	args := m.Called(ctx, id, userID, req)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *mockProductService) Delete(ctx context.Context, id, userID int64) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockProductService) AddFavorite(ctx context.Context, userID, productID int64) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *mockProductService) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	return m.Called(ctx, userID, productID).Error(0)
}

type mockUploadService struct{ mock.Mock }

func (m *mockUploadService) Upload(ctx context.Context, file io.Reader, declaredMime, originalName string) (*model.RemoteAsset, error) {
	_, _ = io.Copy(io.Discard, file)
	args := m.Called(ctx, declaredMime, originalName)
	a, _ := args.Get(0).(*model.RemoteAsset)
	return a, args.Error(1)
}

func (m *mockUploadService) RemoveRemoteAsset(ctx context.Context, publicID string) {
	m.Called(ctx, publicID)
}

// asUser stands in for the auth gate.
func asUser(u *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u != nil {
			c.Set(middleware.AuthUserKey, u)
			c.Set(middleware.AuthRoleKey, u.Role)
		}
		c.Next()
	}
}
