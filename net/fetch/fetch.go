// Package fetch downloads Brotli streams over HTTP and stores them decoded.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/net/html"
	"golang.org/x/net/http/httpguts"

	"github.com/inovacc/brdecode/compression/brotli"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "brdecode"
	streamExt        = ".br"
)

type OptsFn func(f *Fetcher)

// WithClient replaces the HTTP client. Its timeout is left untouched.
func WithClient(c *http.Client) OptsFn {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithTimeout sets the request timeout on a copy of the current client, so a
// client passed to WithClient is never modified.
func WithTimeout(d time.Duration) OptsFn {
	return func(f *Fetcher) {
		c := *f.client
		c.Timeout = d
		f.client = &c
	}
}

func WithUserAgent(ua string) OptsFn {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithDecoderOptions configures the decoder used for every response.
func WithDecoderOptions(opts ...brotli.Option) OptsFn {
	return func(f *Fetcher) {
		f.decoderOpts = append(f.decoderOpts, opts...)
	}
}

func WithLogger(l logrus.FieldLogger) OptsFn {
	return func(f *Fetcher) {
		f.log = l
	}
}

// Fetcher collects stream links, by hand or by crawling a site, and downloads
// them into a filesystem.
type Fetcher struct {
	client      *http.Client
	fs          afero.Fs
	log         logrus.FieldLogger
	userAgent   string
	decoderOpts []brotli.Option

	rules   map[string]bool
	visited map[string]bool
}

func New(fs afero.Fs, opts ...OptsFn) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: defaultTimeout},
		fs:        fs,
		log:       logrus.WithField("pkg", "fetch"),
		userAgent: defaultUserAgent,
		rules:     make(map[string]bool),
		visited:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Include adds link to the download list and reports whether it was new.
func (f *Fetcher) Include(link string) bool {
	if _, exists := f.rules[link]; exists {
		return false
	}
	f.rules[link] = true
	return true
}

// Exclude removes link from the download list and reports whether it was
// listed.
func (f *Fetcher) Exclude(link string) bool {
	if _, exists := f.rules[link]; !exists {
		return false
	}
	delete(f.rules, link)
	return true
}

// List returns the download list sorted.
func (f *Fetcher) List() []string {
	list := make([]string, 0, len(f.rules))
	for k := range f.rules {
		list = append(list, k)
	}
	sort.Strings(list)
	return list
}

// Result describes one stored download.
type Result struct {
	URL     string
	Path    string
	Decoded bool
	Size    int64
}

// Download fetches every listed link into outDir. Failed links are logged and
// skipped; the first failure is returned after all links were tried.
func (f *Fetcher) Download(ctx context.Context, outDir string) ([]*Result, error) {
	if len(f.rules) == 0 {
		return nil, errors.New("no links to download")
	}

	var (
		results  []*Result
		firstErr error
	)
	for _, link := range f.List() {
		res, err := f.Fetch(ctx, link, outDir)
		if err != nil {
			f.log.WithError(err).Errorf("error downloading %s", link)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		f.log.Infof("saved %s to %s (%d bytes)", link, res.Path, res.Size)
		results = append(results, res)
	}
	return results, firstErr
}

// Fetch downloads link into outDir. Bodies sent with Content-Encoding br, or
// whose name ends in .br, are decoded before they are written.
func (f *Fetcher) Fetch(ctx context.Context, link, outDir string) (*Result, error) {
	resp, err := f.get(ctx, http.MethodGet, link)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("GET %s: status code %d", link, resp.StatusCode)
	}

	details := newURLDetails(link, resp)
	if details.Filename == "" {
		return nil, errors.Errorf("could not determine a file name for %s", link)
	}

	name := details.Filename
	var body io.Reader = resp.Body
	decoded := details.Brotli || strings.HasSuffix(name, streamExt)
	if decoded {
		name = strings.TrimSuffix(name, streamExt)
		body = brotli.NewReader(resp.Body, f.decoderOpts...)
	}

	if err := f.fs.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "error creating %s", outDir)
	}

	outPath := filepath.Join(outDir, filepath.Base(name))
	out, err := f.fs.Create(outPath)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating %s", outPath)
	}
	defer out.Close()

	n, err := io.Copy(out, body)
	if err != nil {
		_ = out.Close()
		_ = f.fs.Remove(outPath)
		if errors.Is(err, brotli.ErrDictionaryNotSet) {
			return nil, errors.Wrapf(err, "error storing %s: a static dictionary file is required, set one with WithDecoderOptions", link)
		}
		return nil, errors.Wrapf(err, "error storing %s", link)
	}

	return &Result{URL: link, Path: outPath, Decoded: decoded, Size: n}, nil
}

func (f *Fetcher) get(ctx context.Context, method, link string) (*http.Response, error) {
	if !httpguts.ValidHeaderFieldValue(f.userAgent) {
		return nil, errors.Errorf("invalid user agent %q", f.userAgent)
	}

	req, err := http.NewRequestWithContext(ctx, method, link, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s request for '%s'", method, link)
	}
	// Setting Accept-Encoding keeps the transport from decoding on its own.
	req.Header.Set("Accept-Encoding", "br")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s request to '%s' failed", method, link)
	}
	return resp, nil
}

// Crawl walks the HTML pages reachable from base on the same host and
// includes every link to a .br file it finds.
func (f *Fetcher) Crawl(ctx context.Context, base string) error {
	if base == "" {
		return errors.New("no base URL set")
	}
	return f.crawl(ctx, base, base)
}

func (f *Fetcher) crawl(ctx context.Context, base, current string) error {
	if f.visited[current] {
		return nil
	}
	f.visited[current] = true

	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := f.get(ctx, http.MethodGet, current)
	if err != nil {
		f.log.WithError(err).Warnf("error visiting %s", current)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		return nil
	}

	var pages []string
	z := html.NewTokenizer(resp.Body)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		t := z.Token()
		if t.Data != "a" {
			continue
		}
		for _, a := range t.Attr {
			if a.Key != "href" {
				continue
			}
			link := strings.TrimSpace(a.Val)
			if link == "" || strings.HasPrefix(link, "#") {
				continue
			}
			absLink := resolveURL(current, link)
			if absLink == "" {
				continue
			}
			if isStream(absLink) {
				if f.Include(absLink) {
					f.log.Debugf("found stream %s", absLink)
				}
			} else if isSameDomain(base, absLink) {
				pages = append(pages, absLink)
			}
		}
	}

	for _, page := range pages {
		if err := f.crawl(ctx, base, page); err != nil {
			return err
		}
	}
	return nil
}

func resolveURL(base, href string) string {
	baseURL, err1 := url.Parse(base)
	hrefURL, err2 := url.Parse(href)
	if err1 != nil || err2 != nil {
		return ""
	}
	return baseURL.ResolveReference(hrefURL).String()
}

func isStream(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), streamExt)
}

func isSameDomain(base, link string) bool {
	baseURL, err1 := url.Parse(base)
	linkURL, err2 := url.Parse(link)
	if err1 != nil || err2 != nil {
		return false
	}
	return baseURL.Hostname() == linkURL.Hostname()
}

// URLDetails holds the resolved information about a URL.
type URLDetails struct {
	InitialURL          string
	FinalURL            string
	StatusCode          int
	ContentType         string
	ContentEncoding     string
	Brotli              bool
	Filename            string
	IsRedirected        bool
	ErrorGettingDetails string
}

// Resolve issues a HEAD request for link and reports where it leads and what
// it would be stored as.
func (f *Fetcher) Resolve(ctx context.Context, link string) (*URLDetails, error) {
	resp, err := f.get(ctx, http.MethodHead, link)
	if err != nil {
		return nil, err
	}
	details := newURLDetails(link, resp)
	if err := resp.Body.Close(); err != nil {
		details.ErrorGettingDetails += fmt.Sprintf(" | failed to close response body: %v", err)
	}
	return details, nil
}

func newURLDetails(initialURL string, resp *http.Response) *URLDetails {
	details := &URLDetails{InitialURL: initialURL}

	finalURL := resp.Request.URL
	details.FinalURL = finalURL.String()
	details.StatusCode = resp.StatusCode
	details.IsRedirected = initialURL != details.FinalURL

	details.ContentEncoding = resp.Header.Get("Content-Encoding")
	details.Brotli = httpguts.HeaderValuesContainsToken(resp.Header.Values("Content-Encoding"), "br")

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			details.ContentType = mediaType
		} else {
			details.ContentType = contentType
			details.ErrorGettingDetails += fmt.Sprintf(" | failed to parse Content-Type header '%s': %v", contentType, err)
		}
	}

	var filename string
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		_, params, err := mime.ParseMediaType(disposition)
		if err == nil {
			filename = params["filename"]
		} else {
			details.ErrorGettingDetails += fmt.Sprintf(" | failed to parse Content-Disposition header '%s': %v", disposition, err)
		}
	}

	if filename == "" && details.StatusCode == http.StatusOK && finalURL.Path != "" && finalURL.Path != "/" {
		base := path.Base(finalURL.Path)
		if base != "." && base != "/" {
			unescaped, err := url.PathUnescape(base)
			if err == nil {
				filename = unescaped
			} else {
				filename = base
				details.ErrorGettingDetails += fmt.Sprintf(" | failed to unescape path base '%s': %v", base, err)
			}
		}
	}
	details.Filename = filename

	return details
}
