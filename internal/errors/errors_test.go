package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDerivesCategoryAndSeverity(t *testing.T) {
	cases := []struct {
		code     string
		wantCat  Category
		wantSev  Severity
		wantRetr bool
	}{
		{CodeInvalidArgument, CategoryValidation, SeverityError, false},
		{CodeIndexNotFound, CategoryNotFound, SeverityError, false},
		{CodeStorageError, CategoryStorage, SeverityWarning, true},
		{CodeTransactionAborted, CategoryTransaction, SeverityFatal, true},
		{CodeFuzzyUnavailable, CategoryFuzzy, SeverityError, false},
	}
	for _, tc := range cases {
		le := New(tc.code, "boom")
		assert.Equal(t, tc.wantCat, le.Category, tc.code)
		assert.Equal(t, tc.wantSev, le.Severity, tc.code)
		assert.Equal(t, tc.wantRetr, le.Retryable, tc.code)
	}
}

func TestLexErrorIsMatchesOnCode(t *testing.T) {
	sentinel := New(CodeIndexNotFound, "")
	actual := IndexNotFound("widgets")
	assert.True(t, errors.Is(actual, sentinel))

	other := New(CodeMissingID, "")
	assert.False(t, errors.Is(actual, other))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	le := StorageError(cause, "write failed")
	require.ErrorIs(t, le, cause)
	assert.Contains(t, le.Error(), "disk full")
}

func TestWithDetailAndSuggestion(t *testing.T) {
	le := InvalidArgument("limit", -1).WithSuggestion("use a non-negative limit")
	assert.Equal(t, -1, le.Details["value"])
	assert.Equal(t, "limit", le.Details["field"])
	assert.Equal(t, "use a non-negative limit", le.Suggestion)
}

func TestIsRetryableAndGetCode(t *testing.T) {
	le := TransactionAborted(errors.New("rollback"))
	assert.True(t, IsRetryable(le))
	assert.Equal(t, CodeTransactionAborted, GetCode(le))
	assert.Equal(t, CategoryTransaction, GetCategory(le))

	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Jitter: 0}
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return New(CodeStorageError, "locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	cfg := DefaultRetryConfig()
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return New(CodeInvalidArgument, "nope")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Jitter: 0}
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return New(CodeStorageError, "still locked")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := DefaultRetryConfig()
	err := Retry(ctx, cfg, func() error {
		t.Fatal("fn should not run after cancellation")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
