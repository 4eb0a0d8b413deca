package handler

import "errors"

// Request-shape errors surfaced as 400s before the service is invoked.
var (
	errInvalidBody     = errors.New("invalid request body")
	errAvatarsDisabled = errors.New("avatar uploads are not enabled")
	errAvatarTooLarge  = errors.New("avatar exceeds the 2 MiB limit")
	errAvatarNotImage  = errors.New("avatar must be an image")
	errAvatarUpload    = errors.New("avatar upload failed")
)
