package service

import "errors"

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongPassword      = errors.New("current password is incorrect")

	ErrProductNotFound = errors.New("product not found")
	ErrBlankField      = errors.New("title and description must not be blank")
	ErrForbidden       = errors.New("forbidden: user does not have permission for this action")

	ErrUnsupportedType   = errors.New("only image files are allowed (jpeg, jpg, png, gif, webp, avif)")
	ErrTooLarge          = errors.New("file size exceeds the 5MB limit")
	ErrIncompleteUpload  = errors.New("upload stream ended unexpectedly")
	ErrStagingFailure    = errors.New("failed to stage upload")
	ErrForwardingFailure = errors.New("failed to upload image to media host")
)
