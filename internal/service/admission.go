package service

import (
	"mime"
	"path/filepath"
	"strings"
)

var allowedImageTypes = map[string]struct{}{
	"jpeg": {},
	"jpg":  {},
	"png":  {},
	"gif":  {},
	"webp": {},
	"avif": {},
}

// AdmissionResult is the outcome of Admit. Extension is set only when
// Accepted; Reason only when rejected.
type AdmissionResult struct {
	Accepted  bool
	Extension string
	Reason    string
}

func accepted(ext string) AdmissionResult { return AdmissionResult{Accepted: true, Extension: ext} }
func rejected(reason string) AdmissionResult { return AdmissionResult{Reason: reason} }

// Admit decides whether an upload may be staged. Both the file extension and
// the declared MIME subtype must name an allowed image type.
func Admit(originalName, declaredMime string) AdmissionResult {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedImageTypes[strings.TrimPrefix(ext, ".")]; !ok {
		if ext == "" {
			return rejected("file has no extension")
		}
		return rejected("extension " + ext + " is not allowed")
	}

	mediaType, _, err := mime.ParseMediaType(declaredMime)
	if err != nil {
		return rejected("invalid content type")
	}
	kind, subtype, ok := strings.Cut(mediaType, "/")
	if !ok || kind != "image" {
		return rejected("content type " + mediaType + " is not an image")
	}
	if _, ok := allowedImageTypes[subtype]; !ok {
		return rejected("content type " + mediaType + " is not allowed")
	}
	return accepted(ext)
}
