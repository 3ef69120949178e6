package service

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrRateLimited        = errors.New("Too many OTP requests, please try again later")
)

// ValidationError is a rejected input (400).
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError covers both missing records and records owned by someone
// else (404).
type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// ConflictError is a duplicate (409).
type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

// ForbiddenError is an action the caller's role may not take (403).
type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

// OTPError is a failed reset code check (401).
type OTPError struct{ Message string }

func (e *OTPError) Error() string { return e.Message }

// BanError rejects uploads while a seller ban is active (403).
type BanError struct{ Until time.Time }

func (e *BanError) Error() string { return "Upload ban active" }

func invalid(msg string) error   { return &ValidationError{Message: msg} }
func notFound(msg string) error  { return &NotFoundError{Message: msg} }
func conflict(msg string) error  { return &ConflictError{Message: msg} }
func forbidden(msg string) error { return &ForbiddenError{Message: msg} }
