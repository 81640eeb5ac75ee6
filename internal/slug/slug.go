// Package slug allocates short link identifiers in the global slug namespace.
package slug

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/retry"
)

// Alphabet leaves out 0/O/o and 1/l/I, which are easy to misread.
const Alphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	DefaultLength      = 6
	DefaultMaxAttempts = 3
	MaxLength          = 64
)

// maxReservedRedraws bounds how often one attempt redraws a candidate that
// hit a reserved word.
const maxReservedRedraws = 16

// reserved are first path segments the application routes itself.
var reserved = map[string]struct{}{
	"admin":     {},
	"api":       {},
	"app":       {},
	"assets":    {},
	"auth":      {},
	"dashboard": {},
	"docs":      {},
	"favicon":   {},
	"health":    {},
	"healthz":   {},
	"help":      {},
	"login":     {},
	"logout":    {},
	"metrics":   {},
	"new":       {},
	"robots":    {},
	"settings":  {},
	"signup":    {},
	"static":    {},
	"support":   {},
}

// ExistenceChecker answers whether a slug is taken anywhere in the namespace.
type ExistenceChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type Allocator struct {
	checker ExistenceChecker
	policy  retry.Policy
	length  int
	random  io.Reader
}

type Option func(*Allocator)

// WithLength sets the generated slug length.
func WithLength(n int) Option {
	return func(a *Allocator) { a.length = n }
}

// WithPolicy replaces the default attempt budget.
func WithPolicy(p retry.Policy) Option {
	return func(a *Allocator) { a.policy = p }
}

// WithRandom replaces crypto/rand as the randomness source.
func WithRandom(r io.Reader) Option {
	return func(a *Allocator) { a.random = r }
}

func NewAllocator(checker ExistenceChecker, opts ...Option) *Allocator {
	a := &Allocator{
		checker: checker,
		policy:  retry.Policy{MaxAttempts: DefaultMaxAttempts},
		length:  DefaultLength,
		random:  rand.Reader,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.length < 1 || a.length > MaxLength {
		a.length = DefaultLength
	}
	return a
}

// Generate returns a random slug that passed validation and was free when
// checked. The store's uniqueness constraint still has the final word.
func (a *Allocator) Generate(ctx context.Context) (string, error) {
	var slug string
	err := a.policy.Do(ctx, func(ctx context.Context, _ int) error {
		candidate, err := a.candidate()
		if err != nil {
			return err
		}
		exists, err := a.checker.SlugExists(ctx, candidate)
		if err != nil {
			return err
		}
		if exists {
			return retry.Retryable(apperr.Conflict("slug already taken", nil))
		}
		slug = candidate
		return nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		return "", apperr.Exhausted("could not allocate a unique short link, try again", err)
	}
	if err != nil {
		return "", err
	}
	return slug, nil
}

// Custom validates a user-chosen slug and checks it is free. Input is trimmed
// and lowercased first.
func (a *Allocator) Custom(ctx context.Context, raw string) (string, error) {
	slug := Sanitize(raw)
	if slug == "" {
		return "", apperr.Validation("custom slug is empty")
	}
	if err := Validate(slug); err != nil {
		return "", err
	}
	exists, err := a.checker.SlugExists(ctx, slug)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperr.Conflict("this short link is already taken", nil)
	}
	return slug, nil
}

// candidate draws slugs until one is not a reserved word.
func (a *Allocator) candidate() (string, error) {
	for range maxReservedRedraws {
		s, err := random(a.random, a.length)
		if err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}
		if Validate(s) == nil {
			return s, nil
		}
	}
	return "", apperr.Store("could not draw a valid slug", nil)
}

func Sanitize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Validate checks length, charset and the reserved list. It does not touch
// the store.
func Validate(slug string) error {
	if slug == "" {
		return apperr.Validation("slug is empty")
	}
	if len(slug) > MaxLength {
		return apperr.Validation(fmt.Sprintf("slug is longer than %d characters", MaxLength))
	}
	for _, c := range slug {
		if !validChar(c) {
			return apperr.Validation("slug may only contain letters, digits, '-' and '_'")
		}
	}
	if IsReserved(slug) {
		return apperr.Validation("this short link is reserved")
	}
	return nil
}

func IsReserved(slug string) bool {
	_, ok := reserved[strings.ToLower(slug)]
	return ok
}

func validChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

// random draws n characters from Alphabet. Bytes at or above the largest
// multiple of len(Alphabet) are discarded so every character is equally likely.
func random(r io.Reader, n int) (string, error) {
	const limit = 256 - 256%len(Alphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
