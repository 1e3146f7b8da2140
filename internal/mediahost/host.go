// Package mediahost forwards staged images to permanent remote storage.
package mediahost

import (
	"context"
	"errors"

	"micro_marketplace/internal/model"
)

// UploadOptions bounds the stored asset. The host keeps the aspect ratio and
// never upscales.
type UploadOptions struct {
	Folder    string
	MaxWidth  int
	MaxHeight int
}

// Host is a remote media host.
type Host interface {
	Upload(ctx context.Context, localPath string, opts UploadOptions) (*model.RemoteAsset, error)
	Destroy(ctx context.Context, publicID string) error
}

var ErrEmptyResponse = errors.New("media host returned no asset")
