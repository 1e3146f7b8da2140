package mediahost

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"

	"micro_marketplace/internal/model"
)

// CloudinaryConfig holds account credentials.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// CloudinaryHost uploads to Cloudinary, which applies the bounding transform
// at ingest.
type CloudinaryHost struct {
	cld *cloudinary.Cloudinary
	log zerolog.Logger
}

func NewCloudinaryHost(cfg CloudinaryConfig, log zerolog.Logger) (*CloudinaryHost, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryHost{cld: cld, log: log}, nil
}

// transformation renders the incoming transformation: limit crop to the box,
// automatic quality and format.
func transformation(opts UploadOptions) string {
	t := "c_limit"
	if opts.MaxHeight > 0 {
		t += fmt.Sprintf(",h_%d", opts.MaxHeight)
	}
	if opts.MaxWidth > 0 {
		t += fmt.Sprintf(",w_%d", opts.MaxWidth)
	}
	return t + "/q_auto:good/f_auto"
}

func (h *CloudinaryHost) Upload(ctx context.Context, localPath string, opts UploadOptions) (*model.RemoteAsset, error) {
	resp, err := h.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		Folder:         opts.Folder,
		ResourceType:   "image",
		Transformation: transformation(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" || resp.PublicID == "" {
		return nil, ErrEmptyResponse
	}
	return &model.RemoteAsset{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

// Destroy removes an asset. An already missing asset is not an error.
func (h *CloudinaryHost) Destroy(ctx context.Context, publicID string) error {
	resp, err := h.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.Error.Message != "" {
		return errors.New("cloudinary destroy: " + resp.Error.Message)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy: unexpected result %q", resp.Result)
	}
	h.log.Debug().Str("public_id", publicID).Str("result", resp.Result).Msg("asset destroyed")
	return nil
}
