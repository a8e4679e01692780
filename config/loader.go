package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/bindkit/errors"
	"github.com/kbukum/bindkit/logger"
)

// EnvPrefix marks environment variables that override configuration keys:
// BINDKIT_RESOLUTION_POLICY sets resolution.policy.
const EnvPrefix = "BINDKIT_"

// FileSystem is the loader's view of the disk.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	// UserConfigDir is os.UserConfigDir.
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem on the OS.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv sets the variables of a .env file without overriding variables
// that are already set.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// Resolver locates the config and .env files of a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles are the files a load will read. Empty means none.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths as given and searches for the rest.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(r.configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(envCandidates(serviceName))
	}
	return files
}

// configCandidates lists config file locations, most specific first: the
// working directory, the service's cmd directory, then the user config dir.
func (r *Resolver) configCandidates(serviceName string) []string {
	paths := []string{
		serviceName + ".yml",
		"config.yml",
		filepath.Join("config", serviceName+".yml"),
		filepath.Join("cmd", serviceName, "config.yml"),
	}
	if dir, err := r.FileSystem.UserConfigDir(); err == nil && dir != "" {
		paths = append(paths, filepath.Join(dir, serviceName, "config.yml"))
	}
	return paths
}

func envCandidates(serviceName string) []string {
	return []string{
		".env." + serviceName,
		".env",
		filepath.Join("cmd", serviceName, ".env"),
	}
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig reads the YAML file of serviceName, applies its .env file and
// BINDKIT_ environment variables on top, and unmarshals the result into
// cfg, a pointer to a struct with mapstructure tags. Keys absent from every
// source keep their current value.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	r := &Resolver{FileSystem: lc.FileSystem}
	return load(serviceName, cfg, r.ResolveFiles(serviceName, lc), lc.FileSystem)
}

func load(serviceName string, cfg any, files ResolvedFiles, fs FileSystem) error {
	v := viper.New()
	log := logger.WithComponent("config")

	if files.ConfigFile != "" && fs.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidConfig(fmt.Sprintf("cannot read %s", files.ConfigFile)).WithCause(err)
		}
		log.Debug("config file loaded", logger.Fields(logger.FieldSource, files.ConfigFile))
	}

	if files.EnvFile != "" && fs.Exists(files.EnvFile) {
		if err := fs.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load .env file", logger.MergeWithError(logger.Fields(logger.FieldSource, files.EnvFile), err))
		}
	}

	keys := envKeys(reflect.TypeOf(cfg))
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key, known := keys[name]
		if !known {
			log.Debug("unknown config variable ignored", logger.Fields(logger.FieldSource, name))
			continue
		}
		v.Set(key, value)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return errors.InvalidConfig(fmt.Sprintf("failed to unmarshal config for service %s", serviceName)).WithCause(err)
	}
	return nil
}

// envKeys maps every leaf key of a config struct to its variable name:
// injection.stale_policy becomes BINDKIT_INJECTION_STALE_POLICY.
func envKeys(t reflect.Type) map[string]string {
	keys := make(map[string]string)
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Anonymous {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			if name == "-" {
				continue
			}
			if name == "" {
				name = strings.ToLower(f.Name)
			}
			key := name
			if prefix != "" {
				key = prefix + "." + name
			}
			ft := f.Type
			if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" {
				walk(ft, key)
				continue
			}
			keys[EnvPrefix+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
		}
	}
	if t != nil {
		walk(t, "")
	}
	return keys
}
