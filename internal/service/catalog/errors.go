package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrCapacityExceeded    = errors.New("event is full or closed for registration")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrRateLimited         = errors.New("rate limited")
)

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e RateLimitedError) Unwrap() error { return ErrRateLimited }

type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	return "invalid registration: " + strings.Join(e.Fields, ", ")
}

func (e ValidationError) Unwrap() error { return ErrInvalidRegistration }
