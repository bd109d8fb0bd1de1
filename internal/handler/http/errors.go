// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
// incoming request does not include an "Authorization" header at all.
// Malformed headers are reported with [utils.ErrInvalidAuthorizationHeader].
var ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

// request errors
var (
	errInvalidJSON      = errors.New("invalid JSON was passed")
	errInvalidPathParam = errors.New("invalid path parameter")
	errMissingDocument  = errors.New("multipart field `document` is required")
	errAdminOnly        = errors.New("administrator role required")
	errNoRequestor      = errors.New("request is not authenticated")
	errUploadTooLarge   = errors.New("upload exceeds the size limit")
	errMalformedUpload  = errors.New("malformed multipart upload")
)
