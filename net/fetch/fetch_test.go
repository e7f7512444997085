package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	abrotli "github.com/andybalholm/brotli"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacc/brdecode/compression/brotli"
)

func compress(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := abrotli.NewWriterLevel(&buf, 1)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

type site struct {
	*httptest.Server
	a, b, report []byte
}

func newSite(t *testing.T) *site {
	t.Helper()

	f := gofakeit.New(11)
	s := &site{
		a:      []byte(f.LoremIpsumParagraph(3, 5, 12, " ")),
		b:      []byte(f.HackerPhrase()),
		report: []byte(f.LoremIpsumParagraph(1, 4, 8, " ")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>
<a href="#top">top</a>
<a href="/files/a.txt.br">a</a>
<a href="/page2">more</a>
<a href="https://other.example/x.br">elsewhere</a>
<a href="https://other.example/page">skip</a>
</body></html>`))
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<a href="b.bin.br">b</a><a href="/">home</a>`))
	})
	serve := func(data []byte) http.HandlerFunc {
		stream := compress(t, data)
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(stream)
		}
	}
	mux.HandleFunc("/files/a.txt.br", serve(s.a))
	mux.HandleFunc("/b.bin.br", serve(s.b))
	report := compress(t, s.report)
	mux.HandleFunc("/encoded", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != "br" {
			http.Error(w, "br only", http.StatusNotAcceptable)
			return
		}
		w.Header().Set("Content-Encoding", "br")
		w.Header().Set("Content-Disposition", `attachment; filename="report.txt"`)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(report)
	})
	mux.HandleFunc("/corrupt.br", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0x11, 0x18})
	})
	// Copies the first four-byte word of the static dictionary.
	mux.HandleFunc("/word.br", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0x62, 0x00, 0x00, 0x00, 0x04, 0x40, 0x08, 0x12, 0x10})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func TestCrawlAndDownload(t *testing.T) {
	s := newSite(t)
	fs := afero.NewMemMapFs()
	f := New(fs, WithClient(s.Client()))

	require.NoError(t, f.Crawl(context.Background(), s.URL+"/"))
	assert.Equal(t, []string{
		s.URL + "/b.bin.br",
		s.URL + "/files/a.txt.br",
		"https://other.example/x.br",
	}, f.List())

	assert.True(t, f.Exclude("https://other.example/x.br"))
	assert.False(t, f.Exclude("https://other.example/x.br"))
	assert.False(t, f.Include(s.URL+"/b.bin.br"))

	results, err := f.Download(context.Background(), "/out")
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, tc := range []struct {
		path string
		want []byte
	}{
		{"/out/b.bin", s.b},
		{"/out/a.txt", s.a},
	} {
		got, err := afero.ReadFile(fs, tc.path)
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.want, got, tc.path)
	}
	assert.True(t, results[0].Decoded)
	assert.Equal(t, int64(len(s.b)), results[0].Size)
}

func TestFetch(t *testing.T) {
	s := newSite(t)
	fs := afero.NewMemMapFs()
	f := New(fs, WithClient(s.Client()), WithTimeout(5*time.Second))
	ctx := context.Background()

	t.Run("content encoding", func(t *testing.T) {
		res, err := f.Fetch(ctx, s.URL+"/encoded", "/dl")
		require.NoError(t, err)
		assert.Equal(t, "/dl/report.txt", res.Path)
		assert.True(t, res.Decoded)

		got, err := afero.ReadFile(fs, res.Path)
		require.NoError(t, err)
		assert.Equal(t, s.report, got)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Fetch(ctx, s.URL+"/missing.br", "/dl")
		assert.ErrorContains(t, err, "status code 404")
	})

	t.Run("corrupt", func(t *testing.T) {
		_, err := f.Fetch(ctx, s.URL+"/corrupt.br", "/dl")
		assert.ErrorIs(t, err, brotli.ErrCorrupt)

		ok, _ := afero.Exists(fs, "/dl/corrupt")
		assert.False(t, ok)
	})

	t.Run("no dictionary", func(t *testing.T) {
		_, err := f.Fetch(ctx, s.URL+"/word.br", "/dl")
		assert.ErrorIs(t, err, brotli.ErrDictionaryNotSet)
		assert.ErrorContains(t, err, "dictionary file is required")

		ok, _ := afero.Exists(fs, "/dl/word")
		assert.False(t, ok)
	})

	t.Run("bad user agent", func(t *testing.T) {
		bad := New(fs, WithClient(s.Client()), WithUserAgent("bad\nagent"))
		_, err := bad.Fetch(ctx, s.URL+"/encoded", "/dl")
		assert.ErrorContains(t, err, "invalid user agent")
	})
}

func TestTimeoutKeepsSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	f := New(afero.NewMemMapFs(), WithClient(shared), WithTimeout(5*time.Second))
	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, 5*time.Second, f.client.Timeout)
	assert.NotSame(t, shared, f.client)

	f = New(afero.NewMemMapFs(), WithClient(shared))
	assert.Same(t, shared, f.client)
}

func TestDownloadEmpty(t *testing.T) {
	_, err := New(afero.NewMemMapFs()).Download(context.Background(), "/out")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	s := newSite(t)
	f := New(afero.NewMemMapFs(), WithClient(s.Client()))

	details, err := f.Resolve(context.Background(), s.URL+"/encoded")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, details.StatusCode)
	assert.True(t, details.Brotli)
	assert.Equal(t, "br", details.ContentEncoding)
	assert.Equal(t, "text/plain", details.ContentType)
	assert.Equal(t, "report.txt", details.Filename)
	assert.False(t, details.IsRedirected)

	details, err = f.Resolve(context.Background(), s.URL+"/files/a.txt.br")
	require.NoError(t, err)
	assert.False(t, details.Brotli)
	assert.Equal(t, "a.txt.br", details.Filename)
}

func TestCrawlNoBase(t *testing.T) {
	assert.Error(t, New(afero.NewMemMapFs()).Crawl(context.Background(), ""))
}
