package browser

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrNavigationTimeout = errors.New("navigation timeout")
	ErrSelectorNotFound  = errors.New("selector not found")
	ErrPageClosed        = errors.New("page closed")
)

// LaunchError reports that the browser process could not be started. It is
// the only browser failure callers are expected to surface.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch browser: %v", e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func IsLaunchError(err error) bool {
	var le *LaunchError
	return errors.As(err, &le)
}

type Options struct {
	Headless       bool
	ExecutablePath string
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	Locale         string
	TimezoneID     string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1280,
		ViewportHeight: 800,
		AcceptLanguage: "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
		Locale:         "ko-KR",
		TimezoneID:     "Asia/Seoul",
	}
}

// RequestPolicy lists the resource types a tab refuses to load.
type RequestPolicy struct {
	BlockResources []string
}

// DefaultRequestPolicy drops everything the extractors never read.
func DefaultRequestPolicy() RequestPolicy {
	return RequestPolicy{BlockResources: []string{"font", "media", "stylesheet", "image"}}
}

func (p RequestPolicy) Blocks(resourceType string) bool {
	return slices.Contains(p.BlockResources, resourceType)
}

// Page is the slice of a browser tab the site adapters drive.
type Page interface {
	Goto(url string, timeout time.Duration) error
	WaitFor(selector string, timeout time.Duration) error
	Count(selector string) (int, error)
	Fill(selector, text string) error
	Submit(timeout time.Duration) error
	Content() (string, error)
	InnerHTML(selector string) (string, error)
	Close() error
}

// Process is a running browser able to open tabs.
type Process interface {
	NewPage(opts *Options, policy RequestPolicy) (Page, error)
	Connected() bool
	Close() error
}

type Launcher func(opts *Options) (Process, error)
