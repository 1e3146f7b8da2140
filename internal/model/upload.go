package model

// StagedUpload is a file written to the local stage directory for the
// duration of a single upload.
type StagedUpload struct {
	LocalPath         string
	OriginalExtension string
	SizeBytes         int64
	DeclaredMimeType  string
}

// RemoteAsset is an image stored on the remote media host.
type RemoteAsset struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}
