// Package browsertest serves fixture HTML through the browser.Page interface
// so adapters can be exercised without Chromium.
package browsertest

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wholesale-crawler/internal/browser"
)

// Site is an in-memory set of pages keyed by URL.
type Site struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]error
	visits   map[string]int
	fills    []string

	// OnSubmit maps the last filled text to the URL the form submits to.
	OnSubmit func(text string) string
	// Delay is slept inside every Goto.
	Delay time.Duration
	// LaunchErr makes every launch fail.
	LaunchErr error

	open     atomic.Int64
	maxOpen  atomic.Int64
	launches atomic.Int64
}

func NewSite() *Site {
	return &Site{
		pages:    make(map[string]string),
		failures: make(map[string]error),
		visits:   make(map[string]int),
	}
}

func (s *Site) Page(url, html string) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = html
	return s
}

func (s *Site) Fail(url string, err error) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[url] = err
	return s
}

func (s *Site) Visits(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[url]
}

func (s *Site) TotalVisits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.visits {
		total += n
	}
	return total
}

func (s *Site) Fills() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fills...)
}

func (s *Site) OpenTabs() int64    { return s.open.Load() }
func (s *Site) MaxOpenTabs() int64 { return s.maxOpen.Load() }
func (s *Site) Launches() int64    { return s.launches.Load() }

// Launcher returns a browser.Launcher whose processes browse this site.
func (s *Site) Launcher() browser.Launcher {
	return func(*browser.Options) (browser.Process, error) {
		if s.LaunchErr != nil {
			return nil, s.LaunchErr
		}
		s.launches.Add(1)
		return &process{site: s}, nil
	}
}

func (s *Site) goTo(url string) (string, error) {
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[url]++
	if err, ok := s.failures[url]; ok {
		return "", err
	}
	html, ok := s.pages[url]
	if !ok {
		return "", fmt.Errorf("%w: no fixture for %s", browser.ErrNavigationTimeout, url)
	}
	return html, nil
}

type process struct {
	site   *Site
	closed atomic.Bool
}

func (p *process) NewPage(*browser.Options, browser.RequestPolicy) (browser.Page, error) {
	if p.closed.Load() {
		return nil, errors.New("process closed")
	}
	n := p.site.open.Add(1)
	for {
		peak := p.site.maxOpen.Load()
		if n <= peak || p.site.maxOpen.CompareAndSwap(peak, n) {
			break
		}
	}
	return &page{site: p.site}, nil
}

func (p *process) Connected() bool { return !p.closed.Load() }

func (p *process) Close() error {
	p.closed.Store(true)
	return nil
}

type page struct {
	site      *Site
	html      string
	lastFill  string
	closeOnce sync.Once
	closed    atomic.Bool
}

func (p *page) doc() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.html))
}

func (p *page) Goto(url string, _ time.Duration) error {
	if p.closed.Load() {
		return browser.ErrPageClosed
	}
	html, err := p.site.goTo(url)
	if err != nil {
		return err
	}
	p.html = html
	return nil
}

func (p *page) WaitFor(selector string, _ time.Duration) error {
	n, err := p.Count(selector)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", browser.ErrSelectorNotFound, selector)
	}
	return nil
}

func (p *page) Count(selector string) (int, error) {
	doc, err := p.doc()
	if err != nil {
		return 0, err
	}
	return doc.Find(selector).Length(), nil
}

func (p *page) Fill(selector, text string) error {
	if err := p.WaitFor(selector, 0); err != nil {
		return err
	}
	p.lastFill = text
	p.site.mu.Lock()
	p.site.fills = append(p.site.fills, text)
	p.site.mu.Unlock()
	return nil
}

func (p *page) Submit(timeout time.Duration) error {
	if p.site.OnSubmit == nil {
		return fmt.Errorf("%w: form submit", browser.ErrNavigationTimeout)
	}
	return p.Goto(p.site.OnSubmit(p.lastFill), timeout)
}

func (p *page) Content() (string, error) {
	if p.closed.Load() {
		return "", browser.ErrPageClosed
	}
	return p.html, nil
}

func (p *page) InnerHTML(selector string) (string, error) {
	doc, err := p.doc()
	if err != nil {
		return "", err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", browser.ErrSelectorNotFound, selector)
	}
	return sel.Html()
}

func (p *page) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.site.open.Add(-1)
	})
	return nil
}
