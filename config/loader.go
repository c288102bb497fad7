package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type loaderOptions struct {
	configFile string
	envFile    string
	flags      *pflag.FlagSet
	searchDirs []string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*loaderOptions)

// WithConfigFile reads path instead of searching for config.yml. A path
// that does not exist is skipped.
func WithConfigFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.configFile = path }
}

// WithEnvFile loads path instead of ./.env.
func WithEnvFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithFlags applies the flags of fs that were set on the command line,
// keyed by flag name (e.g. "playback.uri"). Flag defaults never mask
// file or environment values.
func WithFlags(fs *pflag.FlagSet) LoaderOption {
	return func(o *loaderOptions) { o.flags = fs }
}

// WithSearchDirs replaces the directories searched for config.yml.
func WithSearchDirs(dirs ...string) LoaderOption {
	return func(o *loaderOptions) { o.searchDirs = dirs }
}

// LoadConfig overlays cfg, a pointer to a struct with mapstructure tags,
// with values from a config file, a .env file, the environment and
// command-line flags, in increasing order of precedence. Fields no source
// mentions keep their current value.
//
// Environment variables are named after the key with the service name as
// prefix: MEDIAPLAY_PLAYBACK_SEEK_THRESHOLD sets playback.seek.threshold.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	o := loaderOptions{searchDirs: defaultSearchDirs(serviceName)}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	if err := readConfigFile(v, o); err != nil {
		return err
	}
	if err := loadEnvFile(o.envFile); err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range structKeys(reflect.TypeOf(cfg), "") {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding %s to the environment: %w", key, err)
		}
	}

	if o.flags != nil {
		o.flags.Visit(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				v.Set(f.Name, sv.GetSlice())
				return
			}
			v.Set(f.Name, f.Value.String())
		})
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decoding %s configuration: %w", serviceName, err)
	}
	return nil
}

func defaultSearchDirs(serviceName string) []string {
	dirs := []string{".", filepath.Join("cmd", serviceName)}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, serviceName))
	}
	return dirs
}

func readConfigFile(v *viper.Viper, o loaderOptions) error {
	if o.configFile != "" {
		if _, err := os.Stat(o.configFile); err != nil {
			return nil
		}
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", o.configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	for _, dir := range o.searchDirs {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if stderrors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", v.ConfigFileUsed(), err)
	}
	return nil
}

// loadEnvFile exports the variables of path, or of ./.env when path is
// empty. Variables already in the environment win.
func loadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func envPrefix(serviceName string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(serviceName))
}

var timeType = reflect.TypeOf(time.Time{})

// structKeys lists the dotted mapstructure keys of every leaf field of t.
func structKeys(t reflect.Type, prefix string) []string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, tagOpts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if strings.Contains(tagOpts, "squash") {
			keys = append(keys, structKeys(ft, prefix)...)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if ft.Kind() == reflect.Struct && ft != timeType {
			keys = append(keys, structKeys(ft, name)...)
			continue
		}
		keys = append(keys, name)
	}
	return keys
}
