package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"micro_marketplace/internal/mediahost"
	"micro_marketplace/internal/metrics"
	"micro_marketplace/internal/model"
)

const (
	// MaxUploadSize is the fixed ceiling for a single image.
	MaxUploadSize int64 = 5 << 20

	ProductImageFolder = "micro-marketplace/products"
	MaxImageWidth      = 800
	MaxImageHeight     = 1000
)

// UploadService stages incoming images and forwards them to the media host
type UploadService interface {
	Upload(ctx context.Context, file io.Reader, declaredMime, originalName string) (*model.RemoteAsset, error)
	RemoveRemoteAsset(ctx context.Context, publicID string)
}

// UploadConfig configures the pipeline. Zero values fall back to the product
// image folder and no forwarding deadline.
type UploadConfig struct {
	StageDir       string
	Folder         string
	ForwardTimeout time.Duration
}

type uploadService struct {
	host           mediahost.Host
	stageDir       string
	folder         string
	forwardTimeout time.Duration
	log            zerolog.Logger
	metrics        *metrics.Metrics

	remove func(name string) error
}

// NewUploadService creates a new UploadService
func NewUploadService(host mediahost.Host, cfg UploadConfig, log zerolog.Logger, m *metrics.Metrics) UploadService {
	folder := cfg.Folder
	if folder == "" {
		folder = ProductImageFolder
	}
	return &uploadService{
		host:           host,
		stageDir:       cfg.StageDir,
		folder:         folder,
		forwardTimeout: cfg.ForwardTimeout,
		log:            log.With().Str("component", "upload").Logger(),
		metrics:        m,
		remove:         os.Remove,
	}
}

// Upload admits, stages and forwards one image. Once the stage file exists it
// is removed exactly once, whatever happens afterwards.
func (s *uploadService) Upload(ctx context.Context, file io.Reader, declaredMime, originalName string) (*model.RemoteAsset, error) {
	adm := Admit(originalName, declaredMime)
	if !adm.Accepted {
		s.metrics.RecordUpload(metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, adm.Reason)
	}

	f, err := s.createStageFile(adm.Extension)
	if err != nil {
		s.metrics.RecordUpload(metrics.OutcomeStagingFailed)
		return nil, fmt.Errorf("%w: %w", ErrStagingFailure, err)
	}
	defer s.release(f.Name())

	staged, err := s.write(f, file, adm.Extension, declaredMime)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooLarge):
			s.metrics.RecordUpload(metrics.OutcomeTooLarge)
		case errors.Is(err, ErrStagingFailure):
			s.metrics.RecordUpload(metrics.OutcomeStagingFailed)
		default:
			s.metrics.RecordUpload(metrics.OutcomeRejected)
		}
		return nil, err
	}

	asset, err := s.forward(ctx, staged)
	if err != nil {
		s.metrics.RecordUpload(metrics.OutcomeForwardFailed)
		s.log.Error().Err(err).Str("file", originalName).Msg("forwarding failed")
		return nil, err
	}

	s.metrics.RecordUpload(metrics.OutcomeSuccess)
	s.log.Info().Str("public_id", asset.PublicID).Int64("bytes", staged.SizeBytes).Msg("image uploaded")
	return asset, nil
}

// createStageFile opens a fresh file named <unix-nanos>-<random hex><ext>.
// O_EXCL makes a name collision fail instead of sharing a file.
func (s *uploadService) createStageFile(ext string) (*os.File, error) {
	if err := os.MkdirAll(s.stageDir, 0o770); err != nil {
		return nil, err
	}
	id := uuid.New()
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), hex.EncodeToString(id[:8]), ext)
	return os.OpenFile(filepath.Join(s.stageDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
}

// write copies at most MaxUploadSize+1 bytes of src into f and closes f.
func (s *uploadService) write(f *os.File, src io.Reader, ext, declaredMime string) (*model.StagedUpload, error) {
	dst := &writeErrTracker{w: f}
	n, copyErr := io.Copy(dst, io.LimitReader(src, MaxUploadSize+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil && dst.err != nil:
		return nil, fmt.Errorf("%w: %w", ErrStagingFailure, copyErr)
	case copyErr != nil:
		var maxErr *http.MaxBytesError
		if errors.As(copyErr, &maxErr) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("%w: %w", ErrIncompleteUpload, copyErr)
	case n > MaxUploadSize:
		return nil, ErrTooLarge
	case closeErr != nil:
		return nil, fmt.Errorf("%w: %w", ErrStagingFailure, closeErr)
	}

	return &model.StagedUpload{
		LocalPath:         f.Name(),
		OriginalExtension: ext,
		SizeBytes:         n,
		DeclaredMimeType:  declaredMime,
	}, nil
}

func (s *uploadService) forward(ctx context.Context, staged *model.StagedUpload) (*model.RemoteAsset, error) {
	if s.forwardTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.forwardTimeout)
		defer cancel()
	}

	asset, err := s.host.Upload(ctx, staged.LocalPath, mediahost.UploadOptions{
		Folder:    s.folder,
		MaxWidth:  MaxImageWidth,
		MaxHeight: MaxImageHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForwardingFailure, err)
	}
	if asset == nil || asset.URL == "" {
		return nil, fmt.Errorf("%w: %w", ErrForwardingFailure, mediahost.ErrEmptyResponse)
	}
	return asset, nil
}

// release removes a stage file. A file that is already gone counts as removed.
func (s *uploadService) release(path string) {
	err := s.remove(path)
	switch {
	case err == nil:
		s.metrics.RecordStageCleanup(true)
	case errors.Is(err, fs.ErrNotExist):
		s.metrics.RecordStageCleanup(true)
		s.log.Debug().Str("path", path).Msg("staged file already removed")
	default:
		s.metrics.RecordStageCleanup(false)
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove staged file")
	}
}

// RemoveRemoteAsset deletes an asset from the media host. Failures are logged
// and never returned; a blank id is a no-op.
func (s *uploadService) RemoveRemoteAsset(ctx context.Context, publicID string) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return
	}
	if err := s.host.Destroy(ctx, publicID); err != nil {
		s.metrics.RecordRemoteDelete(false)
		s.log.Warn().Err(err).Str("public_id", publicID).Msg("failed to delete remote asset")
		return
	}
	s.metrics.RecordRemoteDelete(true)
}

// writeErrTracker remembers write errors so read and write failures can be
// told apart after io.Copy.
type writeErrTracker struct {
	w   io.Writer
	err error
}

func (t *writeErrTracker) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
