package service

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"micro_marketplace/internal/model"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 42
	}
	return args.Error(0)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id int64, role model.Role) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *mockUserRepo) AddFavorite(ctx context.Context, userID, productID int64) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *mockUserRepo) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	return m.Called(ctx, userID, productID).Error(0)
}

type mockProductRepo struct{ mock.Mock }

func (m *mockProductRepo) Create(ctx context.Context, p *model.Product) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.ID = 7
	}
	return args.Error(0)
}

func (m *mockProductRepo) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *mockProductRepo) FindDetailByID(ctx context.Context, id int64) (*model.ProductDetail, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*model.ProductDetail)
	return d, args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, f model.ProductFilters) ([]model.Product, int64, error) {
	args := m.Called(ctx, f)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Get(1).(int64), args.Error(2)
}

func (m *mockProductRepo) ListFavorites(ctx context.Context, userID int64) ([]model.Product, error) {
	args := m.Called(ctx, userID)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Error(1)
}

func (m *mockProductRepo) Update(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockUploads struct{ mock.Mock }

func (m *mockUploads) Upload(ctx context.Context, file io.Reader, declaredMime, originalName string) (*model.RemoteAsset, error) {
	args := m.Called(ctx, file, declaredMime, originalName)
	a, _ := args.Get(0).(*model.RemoteAsset)
	return a, args.Error(1)
}

func (m *mockUploads) RemoveRemoteAsset(ctx context.Context, publicID string) {
	m.Called(ctx, publicID)
}
