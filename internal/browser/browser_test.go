package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.Headless {
		t.Error("Expected headless to be true by default")
	}

	if opts.Timeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %v", opts.Timeout)
	}

	if opts.ViewportWidth != 1280 || opts.ViewportHeight != 800 {
		t.Errorf("Expected viewport to be 1280x800, got %dx%d", opts.ViewportWidth, opts.ViewportHeight)
	}

	if opts.Locale != "ko-KR" {
		t.Errorf("Expected locale to be ko-KR, got %s", opts.Locale)
	}
}

func TestDefaultRequestPolicy(t *testing.T) {
	policy := DefaultRequestPolicy()

	for _, blocked := range []string{"font", "media", "stylesheet", "image"} {
		assert.True(t, policy.Blocks(blocked), blocked)
	}
	for _, allowed := range []string{"document", "script", "xhr", "fetch"} {
		assert.False(t, policy.Blocks(allowed), allowed)
	}
	assert.False(t, RequestPolicy{}.Blocks("image"))
}

func TestLaunchErrorUnwraps(t *testing.T) {
	cause := errors.New("executable not found")
	var err error = &LaunchError{Err: cause}

	assert.True(t, IsLaunchError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "executable not found")
	assert.False(t, IsLaunchError(cause))
}
