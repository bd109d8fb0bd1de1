package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidUserID       = errors.New("invalid user ID")
	ErrEmptyFilename       = errors.New("no file selected")
	ErrUnsupportedFileType = errors.New("invalid file type, allowed: pdf, png, jpg, jpeg")
	ErrEmptyFile           = errors.New("file is empty")
	ErrFileTooLarge        = errors.New("file is too large")

	ErrEmptyName     = errors.New("name is required")
	ErrInvalidEmail  = errors.New("invalid email")
	ErrEmptyPassword = errors.New("password is required")
	ErrShortPassword = errors.New("password is too short")
)
