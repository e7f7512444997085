package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/inovacc/brdecode/osutil"
)

const (
	AppName        = "brdecode"
	EnvVarPrefix   = "BRDECODE"
	DictionaryFile = "dictionary.bin"

	DefaultChunkSize    = 32 * 1024
	DefaultFetchTimeout = duration(30 * time.Second)
	DefaultUserAgent    = AppName
	DefaultFormat       = "text"

	MinChunkSize    = 1
	MaxChunkSize    = 64 << 20
	MinFetchTimeout = duration(1 * time.Second)
	MaxFetchTimeout = duration(1 * time.Hour)
)

// VERSION gets set during build
var VERSION = "0.0.0"

type Config struct {
	CLI  *CLI
	TOML *TOML
}

type TOML struct {
	Decode *TOMLDecode `toml:"decode"`
	Fetch  *TOMLFetch  `toml:"fetch"`
}

type TOMLDecode struct {
	Dictionary       string `toml:"dictionary"`
	CustomDictionary string `toml:"custom_dictionary"`
	OutputDir        string `toml:"output_dir"`
	LargeWindow      bool   `toml:"large_window"`
	ChunkSize        int    `toml:"chunk_size"`
}

type TOMLFetch struct {
	Timeout   duration `toml:"timeout"`
	UserAgent string   `toml:"user_agent"`
}

type CLI struct {
	Inputs           []string `kong:"arg,optional,help='Files, directories or URLs of Brotli streams'"`
	ConfigFile       string   `kong:"help='Path to the TOML config file',type='path',short='c'"`
	OutputDir        string   `kong:"help='Directory for decoded files (default: next to each input)',short='o'"`
	Dictionary       string   `kong:"help='Path to the RFC 7932 static dictionary',short='D'"`
	CustomDictionary string   `kong:"help='File the streams were compressed against'"`
	LargeWindow      bool     `kong:"help='Accept large-window streams',short='L'"`
	ChunkSize        int      `kong:"help='Input bytes fed to the decoder per call'"`
	Sum              bool     `kong:"help='Print the BLAKE2b-256 digest of each decoded output',short='s'"`
	Force            bool     `kong:"help='Overwrite existing outputs',short='f'"`
	Crawl            bool     `kong:"help='Crawl URL inputs for links to .br files'"`
	DryRun           bool     `kong:"help='List what would be decoded',short='n'"`
	Format           string   `kong:"help='Dry-run listing format',enum='text,markdown,json',default='text'"`

	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Quiet   bool             `kong:"help='Disable showing pre/post output',short='q'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`

	// Internal bits
	Ctx *kong.Context `kong:"-"`
}

// New reads the configuration from .env, the command line and the optional
// TOML file.
func New() (*Config, error) {
	// Attempt to load .env
	_ = godotenv.Load(".env")

	return load(afero.NewOsFs(), os.Args[1:])
}

func load(fs afero.Fs, args []string, opts ...kong.Option) (*Config, error) {
	cli, err := readCLIArgs(args, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}

	tomlConfig := &TOML{}
	if cli.ConfigFile != "" {
		tomlConfig, err = readTOML(fs, cli.ConfigFile)
		if err != nil {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	if err := setTOMLDefaults(tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error setting TOML defaults")
	}

	cfg := &Config{
		CLI:  cli,
		TOML: tomlConfig,
	}
	mergeTOML(cfg)
	setDefaultDictionary(fs, cfg.CLI)

	if err := Validate(fs, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsURL reports whether an input names an HTTP resource rather than a path.
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

// FetchTimeout returns the HTTP client timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.TOML.Fetch.Timeout)
}

func setTOMLDefaults(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if t.Decode == nil {
		t.Decode = &TOMLDecode{}
	}

	if t.Fetch == nil {
		t.Fetch = &TOMLFetch{}
	}

	if t.Decode.ChunkSize == 0 {
		t.Decode.ChunkSize = DefaultChunkSize
	}

	if t.Fetch.Timeout == 0 {
		t.Fetch.Timeout = DefaultFetchTimeout
	}

	if t.Fetch.UserAgent == "" {
		t.Fetch.UserAgent = DefaultUserAgent
	}

	return nil
}

// mergeTOML fills settings left unset on the command line from [decode].
func mergeTOML(c *Config) {
	d := c.TOML.Decode

	if c.CLI.Dictionary == "" {
		c.CLI.Dictionary = d.Dictionary
	}

	if c.CLI.CustomDictionary == "" {
		c.CLI.CustomDictionary = d.CustomDictionary
	}

	if c.CLI.OutputDir == "" {
		c.CLI.OutputDir = d.OutputDir
	}

	if c.CLI.ChunkSize == 0 {
		c.CLI.ChunkSize = d.ChunkSize
	}

	c.CLI.LargeWindow = c.CLI.LargeWindow || d.LargeWindow
}

// setDefaultDictionary picks ~/.brdecode/dictionary.bin when no dictionary
// was configured and that file exists.
func setDefaultDictionary(fs afero.Fs, cli *CLI) {
	if cli.Dictionary != "" {
		return
	}

	dir := osutil.DataDir(AppName)
	if dir == "" {
		return
	}

	path := filepath.Join(dir, DictionaryFile)
	if ok, _ := afero.Exists(fs, path); ok {
		cli.Dictionary = path
	}
}

func Validate(fs afero.Fs, c *Config) error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	if err := validateCLIArgs(fs, c.CLI); err != nil {
		return errors.Wrap(err, "error validating CLI args")
	}

	if err := validateTOML(c.TOML); err != nil {
		return errors.Wrap(err, "error validating toml config")
	}

	return nil
}

func validateCLIArgs(fs afero.Fs, cli *CLI) error {
	if cli == nil {
		return errors.New("config cannot be nil")
	}

	if len(cli.Inputs) == 0 {
		return errors.New("at least one input is required")
	}

	for _, input := range cli.Inputs {
		if IsURL(input) {
			continue
		}
		if ok, _ := afero.Exists(fs, input); !ok {
			return errors.Errorf("input %s does not exist", input)
		}
	}

	if cli.Crawl && !hasURL(cli.Inputs) {
		return errors.New("--crawl needs at least one URL input")
	}

	if cli.ChunkSize < MinChunkSize || cli.ChunkSize > MaxChunkSize {
		return errors.Errorf("chunk size must be between %d and %d", MinChunkSize, MaxChunkSize)
	}

	if err := validateFile(fs, "dictionary", cli.Dictionary); err != nil {
		return err
	}

	if err := validateFile(fs, "custom dictionary", cli.CustomDictionary); err != nil {
		return err
	}

	if cli.OutputDir != "" {
		info, err := fs.Stat(cli.OutputDir)
		if err == nil && !info.IsDir() {
			return errors.Errorf("output dir %s is not a directory", cli.OutputDir)
		}
	}

	return nil
}

func validateFile(fs afero.Fs, name, path string) error {
	if path == "" {
		return nil
	}

	info, err := fs.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", name, path)
	}

	if info.IsDir() {
		return errors.Errorf("%s %s is a directory", name, path)
	}

	return nil
}

func validateTOML(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if t.Decode == nil {
		return errors.New("decode cannot be empty")
	}

	if t.Decode.ChunkSize < MinChunkSize || t.Decode.ChunkSize > MaxChunkSize {
		return errors.Errorf("decode.chunk_size must be between %d and %d", MinChunkSize, MaxChunkSize)
	}

	if t.Fetch == nil {
		return errors.New("fetch cannot be empty")
	}

	if t.Fetch.Timeout < MinFetchTimeout || t.Fetch.Timeout > MaxFetchTimeout {
		return errors.Errorf("fetch.timeout must be between %s and %s", MinFetchTimeout, MaxFetchTimeout)
	}

	if t.Fetch.UserAgent == "" {
		return errors.New("fetch.user_agent cannot be empty")
	}

	return nil
}

func hasURL(inputs []string) bool {
	for _, input := range inputs {
		if IsURL(input) {
			return true
		}
	}
	return false
}

func readCLIArgs(args []string, opts ...kong.Option) (*CLI, error) {
	cli := &CLI{}

	parser, err := kong.New(cli, append([]kong.Option{
		kong.Name(AppName),
		kong.Description("Decoder for Brotli (RFC 7932) streams"),
		kong.UsageOnError(),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": VERSION + " " + osutil.Platform(),
		},
	}, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "error building CLI parser")
	}

	cli.Ctx, err = parser.Parse(args)
	if err != nil {
		return nil, err
	}

	return cli, nil
}

func readTOML(fs afero.Fs, file string) (*TOML, error) {
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, errors.Wrap(err, "error reading file")
	}

	tomlConfig := &TOML{}

	if err := toml.Unmarshal(data, tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error parsing TOML config")
	}

	return tomlConfig, nil
}

type duration time.Duration

func (d duration) String() string {
	return time.Duration(d).String()
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(dur)
	return nil
}
