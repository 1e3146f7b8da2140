package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"micro_marketplace/internal/service"
)

const (
	uploadField = "image"

	// multipartOverhead leaves room for boundaries and part headers on top of
	// the image ceiling.
	multipartOverhead = 1 << 20
)

// ErrNoFile is returned when the request carries no "image" file part.
var ErrNoFile = errors.New("please upload an image file")

// UploadHandler streams a multipart image into the upload pipeline
type UploadHandler struct {
	uploads service.UploadService
	log     zerolog.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploads service.UploadService, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, log: log}
}

// UploadImage reads the "image" part without buffering the whole body and
// hands it to the pipeline.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadSize+multipartOverhead)

	mr, err := c.Request.MultipartReader()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrNoFile.Error()})
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"message": ErrNoFile.Error()})
			return
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.JSON(http.StatusBadRequest, gin.H{"message": service.ErrTooLarge.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"message": "Malformed multipart body"})
			return
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		asset, err := h.uploads.Upload(c.Request.Context(), part, part.Header.Get("Content-Type"), part.FileName())
		_ = part.Close()
		if err != nil {
			h.writeUploadError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message":  "Image uploaded successfully",
			"url":      asset.URL,
			"publicId": asset.PublicID,
		})
		return
	}
}

func (h *UploadHandler) writeUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"message": service.ErrUnsupportedType.Error()})
	case errors.Is(err, service.ErrTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"message": service.ErrTooLarge.Error()})
	case errors.Is(err, service.ErrIncompleteUpload):
		c.JSON(http.StatusBadRequest, gin.H{"message": service.ErrIncompleteUpload.Error()})
	case errors.Is(err, service.ErrForwardingFailure):
		c.JSON(http.StatusBadGateway, gin.H{"message": "Image upload failed"})
	default:
		h.log.Error().Err(err).Msg("upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Image upload failed"})
	}
}

// RegisterUploadRoutes registers the admin-only upload route
func (h *UploadHandler) RegisterUploadRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	rg.POST("/upload", authMW, adminMW, h.UploadImage)
}
