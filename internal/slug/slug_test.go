package slug

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/retry"
)

type setChecker struct {
	mu    sync.Mutex
	taken map[string]bool
	all   bool
	err   error
	calls int
}

func (c *setChecker) SlugExists(_ context.Context, slug string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return c.all || c.taken[strings.ToLower(slug)], nil
}

func TestGenerateProducesValidSlugs(t *testing.T) {
	alloc := NewAllocator(&setChecker{})

	for range 200 {
		s, err := alloc.Generate(context.Background())
		require.NoError(t, err)
		assert.Len(t, s, DefaultLength)
		for _, c := range s {
			assert.True(t, strings.ContainsRune(Alphabet, c), "unexpected character %q in %q", c, s)
		}
		assert.False(t, IsReserved(s))
		assert.NoError(t, Validate(s))
	}
}

func TestAlphabetExcludesConfusables(t *testing.T) {
	for _, c := range "0Oo1lI" {
		assert.False(t, strings.ContainsRune(Alphabet, c), "%q must not be in the alphabet", c)
	}
}

func TestGenerateAvoidsTakenSlugs(t *testing.T) {
	// The first candidate drawn from this stream is "aaaaaa", the second "bbbbbb".
	stream := append(bytes.Repeat([]byte{0}, DefaultLength*2), bytes.Repeat([]byte{1}, DefaultLength*2)...)
	checker := &setChecker{taken: map[string]bool{"aaaaaa": true}}
	alloc := NewAllocator(checker, WithRandom(bytes.NewReader(stream)))

	s, err := alloc.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bbbbbb", s)
	assert.Equal(t, 2, checker.calls)
}

func TestGenerateExhaustsAfterMaxAttempts(t *testing.T) {
	checker := &setChecker{all: true}
	alloc := NewAllocator(checker)

	_, err := alloc.Generate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrAllocationExhausted)
	assert.Equal(t, DefaultMaxAttempts, checker.calls)
	assert.Equal(t, apperr.ErrAllocationExhausted, apperr.Kind(err))
}

func TestGenerateHonoursPolicy(t *testing.T) {
	checker := &setChecker{all: true}
	alloc := NewAllocator(checker, WithPolicy(retry.Policy{MaxAttempts: 5}))

	_, err := alloc.Generate(context.Background())
	assert.ErrorIs(t, err, apperr.ErrAllocationExhausted)
	assert.Equal(t, 5, checker.calls)
}

func TestGenerateStopsOnCheckerError(t *testing.T) {
	checker := &setChecker{err: apperr.Store("down", nil)}
	alloc := NewAllocator(checker)

	_, err := alloc.Generate(context.Background())
	assert.ErrorIs(t, err, apperr.ErrStore)
	assert.Equal(t, 1, checker.calls)
}

func TestGenerateRedrawsReservedWords(t *testing.T) {
	// "assets" is reserved and spelled entirely from the alphabet.
	var stream []byte
	for _, c := range "assets" {
		stream = append(stream, byte(strings.IndexRune(Alphabet, c)))
	}
	stream = append(stream, bytes.Repeat([]byte{0xFF}, DefaultLength)...) // rejected bytes pad the first read
	stream = append(stream, bytes.Repeat([]byte{2}, DefaultLength*2)...)

	checker := &setChecker{}
	alloc := NewAllocator(checker, WithRandom(bytes.NewReader(stream)))

	s, err := alloc.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cccccc", s)
	assert.Equal(t, 1, checker.calls, "reserved candidates never reach the store")
}

func TestCustom(t *testing.T) {
	checker := &setChecker{taken: map[string]bool{"taken": true}}
	alloc := NewAllocator(checker)
	ctx := context.Background()

	s, err := alloc.Custom(ctx, "  My-Link_1 ")
	require.NoError(t, err)
	assert.Equal(t, "my-link_1", s)

	_, err = alloc.Custom(ctx, "Taken")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.False(t, errors.Is(err, apperr.ErrValidation))

	_, err = alloc.Custom(ctx, "ADMIN")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = alloc.Custom(ctx, "has space")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = alloc.Custom(ctx, strings.Repeat("a", MaxLength+1))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCustomEmptySkipsExistenceCheck(t *testing.T) {
	checker := &setChecker{}
	alloc := NewAllocator(checker)

	_, err := alloc.Custom(context.Background(), "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, checker.calls)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"abc", true},
		{"A-b_9", true},
		{"", false},
		{"api", false},
		{"Login", false},
		{"héllo", false},
		{"a/b", false},
		{strings.Repeat("x", MaxLength), true},
		{strings.Repeat("x", MaxLength+1), false},
	}
	for _, tt := range tests {
		err := Validate(tt.slug)
		if tt.valid {
			assert.NoError(t, err, tt.slug)
		} else {
			assert.ErrorIs(t, err, apperr.ErrValidation, tt.slug)
		}
	}
}
