// Package runner executes the decode jobs described by the configuration.
package runner

import (
	"context"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"github.com/inovacc/brdecode/compression/brotli"
	"github.com/inovacc/brdecode/compression/dictionary"
	"github.com/inovacc/brdecode/internal/config"
	"github.com/inovacc/brdecode/net/fetch"
	"github.com/inovacc/brdecode/tree"
)

const (
	streamExt = ".br"
	// outExt names outputs of inputs that lack the .br suffix.
	outExt     = ".out"
	outBufSize = 64 * 1024
)

var ErrOutputExists = errors.New("output already exists")

// Result describes one decoded stream.
type Result struct {
	Input  string
	Output string
	Size   int64
	// Sum is the hex BLAKE2b-256 digest of the output, when requested.
	Sum string
}

type Runner struct {
	cfg     *config.Config
	fs      afero.Fs
	out     io.Writer
	log     *logrus.Entry
	opts    []brotli.Option
	fetcher *fetch.Fetcher
}

// job is a local stream found below root. single marks streams named
// directly on the command line.
type job struct {
	root   string
	path   string
	single bool
}

// New prepares the decoder options named by cfg. Listings and digests are
// written to out.
func New(cfg *config.Config, fs afero.Fs, out io.Writer) (*Runner, error) {
	if cfg == nil || cfg.CLI == nil || cfg.TOML == nil {
		return nil, errors.New("config cannot be nil")
	}

	r := &Runner{
		cfg: cfg,
		fs:  fs,
		out: out,
		log: logrus.WithField("pkg", "runner"),
	}

	r.opts = append(r.opts,
		brotli.WithLargeWindow(cfg.CLI.LargeWindow),
		brotli.WithLogger(logrus.WithField("pkg", "brotli")),
	)

	if cfg.CLI.Dictionary != "" {
		d, err := dictionary.Load(fs, cfg.CLI.Dictionary)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load dictionary")
		}
		r.opts = append(r.opts, brotli.WithDictionary(d))
	}

	if cfg.CLI.CustomDictionary != "" {
		data, err := afero.ReadFile(fs, cfg.CLI.CustomDictionary)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read custom dictionary")
		}
		r.opts = append(r.opts, brotli.WithCustomDictionary(data))
	}

	r.fetcher = fetch.New(fs,
		fetch.WithTimeout(cfg.FetchTimeout()),
		fetch.WithUserAgent(cfg.TOML.Fetch.UserAgent),
		fetch.WithDecoderOptions(r.opts...),
		fetch.WithLogger(logrus.WithField("pkg", "fetch")),
	)

	return r, nil
}

// Fetcher exposes the HTTP client used for URL inputs.
func (r *Runner) Fetcher() *fetch.Fetcher {
	return r.fetcher
}

// Run decodes every input. A failing input is logged and the run goes on;
// the first error is returned at the end.
func (r *Runner) Run(ctx context.Context) ([]*Result, error) {
	jobs, trees, err := r.collect(ctx)
	if err != nil {
		return nil, err
	}

	if r.cfg.CLI.DryRun {
		return nil, r.list(ctx, jobs, trees)
	}

	var (
		results  []*Result
		firstErr error
	)
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, j := range jobs {
		res, err := r.decodeFile(ctx, j)
		if err != nil {
			r.log.WithError(err).Errorf("unable to decode %s", j.path)
			keep(err)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return results, firstErr
			}
			continue
		}
		r.log.Debugf("decoded %s to %s (%d bytes)", res.Input, res.Output, res.Size)
		results = append(results, res)
	}

	if len(r.fetcher.List()) > 0 {
		downloaded, err := r.fetcher.Download(ctx, r.urlOutputDir())
		if err != nil {
			keep(err)
		}
		for _, d := range downloaded {
			res := &Result{Input: d.URL, Output: d.Path, Size: d.Size}
			if r.cfg.CLI.Sum {
				if res.Sum, err = r.sumFile(d.Path); err != nil {
					keep(err)
				}
			}
			results = append(results, res)
		}
	}

	if r.cfg.CLI.Sum {
		for _, res := range results {
			if res.Sum != "" {
				_, _ = fmt.Fprintf(r.out, "%s  %s\n", res.Sum, res.Output)
			}
		}
	}

	return results, firstErr
}

// collect expands directories into their .br files and queues URL inputs on
// the fetcher.
func (r *Runner) collect(ctx context.Context) ([]job, []*tree.Tree, error) {
	var (
		jobs  []job
		trees []*tree.Tree
	)

	for _, input := range r.cfg.CLI.Inputs {
		if config.IsURL(input) {
			if r.cfg.CLI.Crawl {
				if err := r.fetcher.Crawl(ctx, input); err != nil {
					return nil, nil, errors.Wrapf(err, "error crawling %s", input)
				}
				continue
			}
			r.fetcher.Include(input)
			continue
		}

		info, err := r.fs.Stat(input)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unable to stat %s", input)
		}

		if !info.IsDir() {
			jobs = append(jobs, job{root: filepath.Dir(input), path: input, single: true})
			continue
		}

		t := tree.NewTree(r.fs, input, tree.NewConfig(tree.WithSuffix(streamExt), tree.WithExclude(".")))
		if err := t.MakeTree(); err != nil {
			return nil, nil, errors.Wrapf(err, "unable to walk %s", input)
		}
		trees = append(trees, t)

		for _, path := range t.Files() {
			jobs = append(jobs, job{root: input, path: path})
		}
	}

	return jobs, trees, nil
}

func (r *Runner) list(ctx context.Context, jobs []job, trees []*tree.Tree) error {
	for _, t := range trees {
		var listing string
		switch r.cfg.CLI.Format {
		case "markdown":
			listing = t.ToMarkdown()
		case "json":
			js, err := t.ToJSON()
			if err != nil {
				return errors.Wrap(err, "unable to render tree")
			}
			listing = js + "\n"
		default:
			listing = t.ToString()
		}
		_, _ = io.WriteString(r.out, listing)
	}

	for _, j := range jobs {
		if !j.single {
			continue
		}
		_, _ = fmt.Fprintf(r.out, "%s -> %s\n", j.path, r.outputPath(j))
	}

	for _, link := range r.fetcher.List() {
		details, err := r.fetcher.Resolve(ctx, link)
		if err != nil {
			r.log.WithError(err).Warnf("unable to resolve %s", link)
			continue
		}
		encoding := "identity"
		if details.Brotli || strings.HasSuffix(details.Filename, streamExt) {
			encoding = "br"
		}
		_, _ = fmt.Fprintf(r.out, "%s -> %s [%d, %s]\n", link, details.Filename, details.StatusCode, encoding)
	}

	return nil
}

func (r *Runner) outputPath(j job) string {
	rel, err := filepath.Rel(j.root, j.path)
	if err != nil {
		rel = filepath.Base(j.path)
	}

	if trimmed := strings.TrimSuffix(rel, streamExt); trimmed != rel {
		rel = trimmed
	} else {
		rel += outExt
	}

	dir := r.cfg.CLI.OutputDir
	if dir == "" {
		dir = j.root
	}
	return filepath.Join(dir, rel)
}

func (r *Runner) urlOutputDir() string {
	if r.cfg.CLI.OutputDir != "" {
		return r.cfg.CLI.OutputDir
	}
	return "."
}

func (r *Runner) decodeFile(ctx context.Context, j job) (*Result, error) {
	outPath := r.outputPath(j)

	if !r.cfg.CLI.Force {
		if ok, _ := afero.Exists(r.fs, outPath); ok {
			return nil, errors.Wrapf(ErrOutputExists, "%s", outPath)
		}
	}

	in, err := r.fs.Open(j.path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", j.path)
	}
	defer in.Close()

	if err := r.fs.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", filepath.Dir(outPath))
	}

	out, err := r.fs.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", outPath)
	}

	var (
		w io.Writer = out
		h hash.Hash
	)
	if r.cfg.CLI.Sum {
		h, _ = blake2b.New256(nil)
		w = io.MultiWriter(out, h)
	}

	n, err := r.decode(ctx, in, w)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = errors.Wrapf(cerr, "unable to close %s", outPath)
	}
	if err != nil {
		_ = r.fs.Remove(outPath)
		if errors.Is(err, brotli.ErrDictionaryNotSet) {
			return nil, errors.Wrapf(err, "error decoding %s: a static dictionary file is required, set one with --dictionary", j.path)
		}
		return nil, errors.Wrapf(err, "error decoding %s", j.path)
	}

	res := &Result{Input: j.path, Output: outPath, Size: n}
	if h != nil {
		res.Sum = hex.EncodeToString(h.Sum(nil))
	}
	return res, nil
}

// decode feeds src to a decoder in chunks of the configured size and writes
// the output to dst as it is produced.
func (r *Runner) decode(ctx context.Context, src io.Reader, dst io.Writer) (int64, error) {
	d := brotli.NewDecoder(r.opts...)
	inBuf := make([]byte, r.cfg.CLI.ChunkSize)
	outBuf := make([]byte, outBufSize)

	var (
		total   int64
		pending []byte
		eof     bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		if len(pending) == 0 && !eof {
			n, err := src.Read(inBuf)
			pending = inBuf[:n]
			if err == io.EOF {
				eof = true
			} else if err != nil {
				return total, errors.Wrap(err, "unable to read input")
			}
		}

		consumed, produced, res := d.Decompress(pending, outBuf)
		pending = pending[consumed:]

		if produced > 0 {
			if _, err := dst.Write(outBuf[:produced]); err != nil {
				return total, errors.Wrap(err, "unable to write output")
			}
			total += int64(produced)
		}

		switch res {
		case brotli.ResultSuccess:
			if len(pending) > 0 {
				return total, brotli.ErrExcessiveInput
			}
			if !eof {
				var one [1]byte
				if n, _ := io.ReadFull(src, one[:]); n > 0 {
					return total, brotli.ErrExcessiveInput
				}
			}
			return total, nil

		case brotli.ResultNeedsMoreInput:
			if eof && len(pending) == 0 {
				return total, errors.Wrapf(io.ErrUnexpectedEOF, "stream ends after %d decoded bytes", total)
			}

		case brotli.ResultError:
			return total, &brotli.DecodeError{Code: d.ErrorCode(), Offset: d.TotalOut()}
		}
	}
}

func (r *Runner) sumFile(path string) (string, error) {
	f, err := r.fs.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	h, _ := blake2b.New256(nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "unable to hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
