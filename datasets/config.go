package datasets

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gomlx/nlpdatasets/internal/files"
	"github.com/gomlx/nlpdatasets/tokenizers/api"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

// EnvPrefix is the prefix of environment variables overriding Config values,
// e.g. NLPDATASETS_MAX_SEQ_LEN.
const EnvPrefix = "NLPDATASETS"

// Config describes where a dataset is and how to build it. It can be loaded from a file with
// LoadConfig, or created with DefaultConfig and filled in.
type Config struct {
	// BasePath is the directory of the dataset. Relative DataFile, LabelFile are resolved against it.
	BasePath string `mapstructure:"base_path"`

	// Mode is the split of the dataset: "train", "dev" or "test".
	Mode string `mapstructure:"mode"`

	// DataFile defaults to "<Mode>.tsv".
	DataFile  string `mapstructure:"data_file"`
	HasHeader bool   `mapstructure:"has_header"`

	// Labels takes precedence over LabelFile.
	Labels    []string `mapstructure:"labels"`
	LabelFile string   `mapstructure:"label_file"`

	MaxSeqLen     int    `mapstructure:"max_seq_len"`
	SplitChar     string `mapstructure:"split_char"`
	NoEntityLabel string `mapstructure:"no_entity_label"`

	// CacheDir, if set, is where built records are cached, see Load.
	CacheDir string `mapstructure:"cache_dir"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:          "train",
		MaxSeqLen:     DefaultMaxSeqLen,
		SplitChar:     DefaultSplitChar,
		NoEntityLabel: DefaultNoEntityLabel,
	}
}

// LoadConfig reads the configuration from configPath (YAML, JSON or TOML, by extension) and from
// environment variables prefixed with EnvPrefix. If configPath is empty, only the defaults and the
// environment are used.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("base_path", defaults.BasePath)
	v.SetDefault("mode", defaults.Mode)
	v.SetDefault("data_file", defaults.DataFile)
	v.SetDefault("has_header", defaults.HasHeader)
	v.SetDefault("labels", []string{})
	v.SetDefault("label_file", defaults.LabelFile)
	v.SetDefault("max_seq_len", defaults.MaxSeqLen)
	v.SetDefault("split_char", defaults.SplitChar)
	v.SetDefault("no_entity_label", defaults.NoEntityLabel)
	v.SetDefault("cache_dir", defaults.CacheDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if !files.Exists(configPath) {
			return nil, errors.Wrapf(ErrMissingResource, "config file %q not found", configPath)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %q", configPath)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	return cfg, nil
}

// resolve returns file relative to BasePath, unless it is absolute.
func (c *Config) resolve(file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.BasePath, file)
}

// DataPath returns the resolved path of the data file.
func (c *Config) DataPath() string {
	dataFile := c.DataFile
	if dataFile == "" {
		dataFile = c.Mode + ".tsv"
	}
	return c.resolve(dataFile)
}

// LabelPath returns the resolved path of the label file, or "" if there is none.
func (c *Config) LabelPath() string {
	return c.resolve(c.LabelFile)
}

// Options returns the build Options for the given labels.
func (c *Config) Options(labels *LabelIndex) Options {
	return Options{
		MaxSeqLen:     c.MaxSeqLen,
		SplitChar:     c.SplitChar,
		NoEntityLabel: c.NoEntityLabel,
		Labels:        labels,
	}
}

// cacheName identifies the cached records of a build. It is derived from the data file and the
// label source (absolute path, size and modification time) and from every option affecting the
// records, so a change to any of them is a cache miss.
//
// It doesn't identify the tokenizer: use one CacheDir per tokenizer.
func (c *Config) cacheName(task Task) (string, error) {
	dataStamp, err := fileStamp(c.DataPath())
	if err != nil {
		return "", errors.WithMessage(err, "data file")
	}
	key := []string{
		"data=" + dataStamp,
		"task=" + task.String(),
		"max_seq_len=" + strconv.Itoa(c.MaxSeqLen),
		"split_char=" + strconv.Quote(c.SplitChar),
		"no_entity_label=" + strconv.Quote(c.NoEntityLabel),
		"has_header=" + strconv.FormatBool(c.HasHeader),
	}
	if len(c.Labels) > 0 {
		key = append(key, "labels="+strconv.Quote(strings.Join(c.Labels, "\n")))
	} else if c.LabelFile != "" {
		labelStamp, err := fileStamp(c.LabelPath())
		if err != nil {
			return "", errors.WithMessage(err, "label file")
		}
		key = append(key, "label_file="+labelStamp)
	}
	hash := uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(key, "\x00")))

	base := filepath.Base(c.DataPath())
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s-%s-%s", base, task, hash), nil
}

// fileStamp describes the file version at path: its absolute path, size and modification time.
// It returns ErrMissingResource if the file doesn't exist.
func fileStamp(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %q", path)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrMissingResource, "%q not found", absPath)
		}
		return "", errors.Wrapf(err, "failed to stat %q", absPath)
	}
	return fmt.Sprintf("%s:%d:%d", absPath, info.Size(), info.ModTime().UnixNano()), nil
}

// Load builds the Dataset described by cfg: it builds the LabelIndex, reads the data file and
// converts the examples with New.
//
// If cfg.CacheDir is set, records cached by a previous Load of the same data file, label source
// and options are used instead, and newly built records are written to the cache.
func Load(tokenizer api.Tokenizer, task Task, cfg *Config) (*Dataset, error) {
	var cacheName string
	if cfg.CacheDir != "" {
		var err error
		cacheName, err = cfg.cacheName(task)
		if err != nil {
			return nil, err
		}
		d, err := ReadCache(cfg.CacheDir, cacheName, task)
		if err == nil {
			klog.V(1).Infof("Dataset %s loaded from cache %q", cacheName, cfg.CacheDir)
			return d, nil
		}
		if !errors.Is(err, ErrMissingResource) {
			return nil, err
		}
	}

	labels, err := BuildLabelIndex(cfg.Labels, cfg.LabelPath())
	if err != nil {
		return nil, err
	}
	examples, err := ReadExamplesFile(cfg.DataPath(), task, cfg.HasHeader)
	if err != nil {
		return nil, err
	}
	d, err := New(tokenizer, task, examples, cfg.Options(labels))
	if err != nil {
		return nil, errors.WithMessagef(err, "data file %q", cfg.DataPath())
	}
	if cfg.CacheDir != "" {
		if err := d.WriteCache(cfg.CacheDir, cacheName); err != nil {
			return nil, err
		}
	}
	return d, nil
}
