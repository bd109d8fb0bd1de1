// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

// profile pipeline
var (
	ErrInsufficientText = errors.New("insufficient text to generate a profile")
	ErrGenerationFailed = errors.New("profile generation failed")
	ErrUnauthorized     = errors.New("requester is not allowed to access this user")
	ErrNotFound         = errors.New("not found")
	ErrStorage          = errors.New("storage error")
)

// auth
var (
	ErrInvalidDataProvided     = errors.New("invalid data provided")
	ErrWrongCredentials        = errors.New("wrong email or password")
	ErrEmailTaken              = errors.New("email is already registered")
	ErrUserLocked              = errors.New("user account is not active")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
)

// administration
var (
	ErrSelfAction = errors.New("administrators cannot apply this action to themselves")
)

var ErrVersionIsNotSpecified = errors.New("app version is not specified")
