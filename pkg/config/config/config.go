// Package config reads the configuration of the avatars generator from the
// environment and from an optional configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
	"text/template"

	"github.com/adrg/xdg"
	"github.com/cozy/cozy-avatars/pkg/avatar"
	"github.com/cozy/cozy-avatars/pkg/canvas"
	build "github.com/cozy/cozy-avatars/pkg/config"
	"github.com/cozy/cozy-avatars/pkg/fonts"
	"github.com/cozy/cozy-avatars/pkg/logger"
	"github.com/cozy/cozy-avatars/pkg/utils"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Filename is the default configuration filename that is searched.
const Filename = "avatars"

// EnvPrefix is the prefix of the environment variables, AVATARS_AVATAR_WIDTH
// for the avatar.width key and AVATARS_ROOT for the root key.
const EnvPrefix = "avatars"

// ErrInvalidFontSpec is returned for a font that is not given as
// PATH:FAMILY.
var ErrInvalidFontSpec = errors.New("invalid font, expected PATH:FAMILY")

// Paths is the list of directories used to search for a configuration file.
var Paths = []string{
	".",
	filepath.Join(xdg.ConfigHome, "cozy"),
	"$HOME/.cozy",
	"/etc/cozy",
}

var config *Config

var log = logger.WithNamespace("config")

// Config contains the configuration values of the application.
type Config struct {
	// Avatar are the default options. The name is always given per request.
	Avatar avatar.Options `json:"avatar"`
	// Root replaces the working directory as the root of the output paths.
	Root   string        `json:"root,omitempty"`
	Strict bool          `json:"strict"`
	Fonts  []avatar.Font `json:"fonts,omitempty"`
	Log    Logger        `json:"log"`

	Avatars *avatar.Service `json:"-"`
}

// Logger contains the configuration of the logs.
type Logger struct {
	Level  string `json:"level"`
	Syslog bool   `json:"syslog"`
}

// GetConfig returns the configured instance of Config.
func GetConfig() *Config {
	return config
}

// Avatars returns the configured avatar service.
func Avatars() *avatar.Service {
	return config.Avatars
}

// AvatarOptions returns the configured options for the given name.
func (c *Config) AvatarOptions(name string) avatar.Options {
	opts := c.Avatar
	opts.Name = name
	return opts
}

// Setup Viper to read the environment and the optional config file.
func Setup(cfgFile string) (err error) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	applyDefaults(viper.GetViper())

	var cfgFiles []string
	if cfgFile == "" {
		cfgFiles, err = findConfigFiles(Filename)
		if err != nil {
			return err
		}
	} else {
		cfgFiles = []string{cfgFile}
	}

	if len(cfgFiles) == 0 {
		return UseViper(viper.GetViper())
	}

	log.Debugf("Using config files: %s", cfgFiles)

	for _, cfgFile = range cfgFiles {
		if err := mergeConfigFile(viper.GetViper(), cfgFile); err != nil {
			return err
		}
	}

	return UseViper(viper.GetViper())
}

// mergeConfigFile executes the file as a template, with the environment
// variables available as .Env, then merges it.
func mergeConfigFile(v *viper.Viper, cfgFile string) error {
	tmplName := filepath.Base(cfgFile)
	tmpl := template.New(tmplName)
	tmpl = tmpl.Option("missingkey=zero")
	tmpl, err := tmpl.Funcs(numericFuncsMap).ParseFiles(cfgFile)
	if err != nil {
		return fmt.Errorf("Unable to open and parse configuration file "+
			"template %s: %s", cfgFile, err)
	}

	dest := new(bytes.Buffer)
	ctxt := &struct {
		Env    map[string]string
		NumCPU int
	}{
		Env:    envMap(),
		NumCPU: runtime.NumCPU(),
	}
	err = tmpl.ExecuteTemplate(dest, tmplName, ctxt)
	if err != nil {
		return fmt.Errorf("Template error for config files %s: %s", cfgFile, err)
	}

	cfgFile = regexp.MustCompile(`\.local$`).ReplaceAllString(cfgFile, "")
	if ext := filepath.Ext(cfgFile); len(ext) > 0 {
		v.SetConfigType(ext[1:])
	}
	if err := v.MergeConfig(dest); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			log.Errorf("Failed to read the configuration from %s", cfgFile)
			log.Errorf("%s", dest.String())
		}
		return err
	}
	return nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("avatar.path", avatar.DefaultPath)
	v.SetDefault("avatar.width", avatar.DefaultWidth)
	v.SetDefault("avatar.height", avatar.DefaultHeight)
	v.SetDefault("avatar.color", avatar.DefaultColor)
	v.SetDefault("avatar.background", avatar.DefaultBackground)
	v.SetDefault("avatar.font_family", avatar.DefaultFontFamily)
	v.SetDefault("avatar.font_weight", avatar.DefaultFontWeight)
	v.SetDefault("avatar.font_style", avatar.DefaultFontStyle)
	v.SetDefault("avatar.font_size", avatar.DefaultFontSize)
	v.SetDefault("avatar.case", string(avatar.DefaultCase))
	v.SetDefault("strict", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.syslog", false)
}

func envMap() map[string]string {
	env := make(map[string]string)
	for _, i := range os.Environ() {
		sep := strings.Index(i, "=")
		env[i[0:sep]] = i[sep+1:]
	}
	return env
}

// UseViper sets the configured instance of Config.
func UseViper(v *viper.Viper) error {
	specs, err := makeFonts(v)
	if err != nil {
		return err
	}

	root := v.GetString("root")
	if root != "" {
		root = utils.AbsPath(root)
	}

	cfg := &Config{
		Avatar: avatar.Options{
			Path:       v.GetString("avatar.path"),
			Width:      v.GetInt("avatar.width"),
			Height:     v.GetInt("avatar.height"),
			Color:      v.GetString("avatar.color"),
			Background: v.GetString("avatar.background"),
			FontFamily: v.GetString("avatar.font_family"),
			FontWeight: v.GetString("avatar.font_weight"),
			FontStyle:  v.GetString("avatar.font_style"),
			FontSize:   v.GetInt("avatar.font_size"),
			Case:       avatar.Case(v.GetString("avatar.case")),
		},
		Root:   root,
		Strict: v.GetBool("strict"),
		Fonts:  specs,
		Log: Logger{
			Level:  v.GetString("log.level"),
			Syslog: v.GetBool("log.syslog"),
		},
	}

	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	loggerOpts := logger.Options{
		Level:  cfg.Log.Level,
		Syslog: cfg.Log.Syslog,
	}
	if cfg.Log.Syslog {
		loggerOpts.Output = io.Discard
	}
	if err := logger.Init(loggerOpts); err != nil {
		return err
	}

	cfg.Avatars = newAvatars(cfg)
	config = cfg
	return nil
}

// GeneratorOptions returns the options of a generator writing where the
// configured service does.
func (c *Config) GeneratorOptions() []avatar.Option {
	var opts []avatar.Option
	if c.Root != "" {
		root := c.Root
		opts = append(opts, avatar.WithRoot(func() string { return root }))
	}
	if c.Strict {
		opts = append(opts, avatar.WithStrict())
	}
	return opts
}

func newAvatars(cfg *Config) *avatar.Service {
	registry := fonts.Default()
	opts := []avatar.ServiceOption{avatar.WithServiceStrict(cfg.Strict)}
	if cfg.Root != "" {
		root := cfg.Root
		opts = append(opts, avatar.WithServiceRoot(func() string { return root }))
	}
	return avatar.NewService(avatar.NewFsStorage(afero.NewOsFs()), canvas.New(registry), registry, opts...)
}

// makeFonts reads the fonts key, either a list of {path, family} from a
// configuration file or a comma separated list of PATH:FAMILY from the
// environment.
func makeFonts(v *viper.Viper) ([]avatar.Font, error) {
	if raw, ok := v.Get("fonts").(string); ok {
		var specs []avatar.Font
		for _, part := range utils.SplitTrimString(raw, ",") {
			spec, err := ParseFont(part)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		return specs, nil
	}

	var specs []avatar.Font
	if err := v.UnmarshalKey("fonts", &specs); err != nil {
		return nil, fmt.Errorf("invalid fonts: %w", err)
	}
	for i, spec := range specs {
		if spec.Path == "" || spec.Family == "" {
			return nil, fmt.Errorf("%w: fonts[%d]", ErrInvalidFontSpec, i)
		}
		specs[i].Path = utils.AbsPath(spec.Path)
	}
	return specs, nil
}

// ParseFont parses a font given as PATH:FAMILY. The path is made absolute.
func ParseFont(s string) (avatar.Font, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return avatar.Font{}, fmt.Errorf("%w: %q", ErrInvalidFontSpec, s)
	}
	path := strings.TrimSpace(s[:i])
	family := strings.TrimSpace(s[i+1:])
	if path == "" || family == "" {
		return avatar.Font{}, fmt.Errorf("%w: %q", ErrInvalidFontSpec, s)
	}
	return avatar.Font{Path: utils.AbsPath(path), Family: family}, nil
}

func createTestViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	applyDefaults(v)
	return v
}

// UseTestConfig can be used in a test file to inject a configuration with
// the default values, writing the avatars under root.
func UseTestConfig(t *testing.T, root string) {
	t.Helper()

	build.BuildMode = build.ModeProd
	v := createTestViper()
	v.Set("root", root)

	if err := UseViper(v); err != nil {
		t.Fatalf("fatal error test config: %s", err)
	}
}

// FindConfigFile search in the Paths directories for the file with the given
// name. It returns an error if it cannot find it or if an error occurs while
// searching.
func FindConfigFile(name string) (string, error) {
	for _, cp := range Paths {
		filename := filepath.Join(utils.AbsPath(cp), name)
		ok, err := utils.FileExists(filename)
		if err != nil {
			return "", err
		}
		if ok {
			return filename, nil
		}
	}
	return "", fmt.Errorf("Could not find config file %q", name)
}

// findConfigFiles search in the Paths directories for the first supported
// Viper file, then for its .local version which takes precedence.
func findConfigFiles(name string) ([]string, error) {
	var configFiles []string
	configFile := ""
	for _, ext := range viper.SupportedExts {
		configFile, _ = FindConfigFile(name + "." + ext)
		if configFile != "" {
			break
		}
	}
	if configFile == "" {
		return nil, nil
	}

	configFiles = append(configFiles, configFile)

	configFile += ".local"
	ok, _ := utils.FileExists(configFile)
	if ok {
		configFiles = append(configFiles, configFile)
	}

	return configFiles, nil
}
