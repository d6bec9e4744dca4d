// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/alvinbaena/pass-audit/internal/util"
	"github.com/alvinbaena/pass-audit/pkg/hibp"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const AppName = "pass-audit"

// ErrInvalid is returned when a value fails validation. The configuration is
// still returned so command line flags can fix it.
var ErrInvalid = errors.New("invalid configuration")

// Version is replaced at build time.
var Version = "1.2.0"

// Config is read from the environment, and optionally from a YAML file using
// the same keys. The environment wins over the file.
type Config struct {
	StoreDir   string        `mapstructure:"PASSWORD_STORE_DIR" validate:"required"`
	GPGBinary  string        `mapstructure:"PASSWORD_STORE_GPG"`
	GPGOpts    string        `mapstructure:"PASSWORD_STORE_GPG_OPTS"`
	HibpURL    string        `mapstructure:"PASS_AUDIT_HIBP_URL" validate:"required,url"`
	UserAgent  string        `mapstructure:"PASS_AUDIT_USER_AGENT" validate:"required"`
	Timeout    time.Duration `mapstructure:"PASS_AUDIT_TIMEOUT" validate:"gt=0"`
	Retries    int           `mapstructure:"PASS_AUDIT_RETRIES" validate:"gte=0"`
	Workers    int           `mapstructure:"PASS_AUDIT_WORKERS" validate:"gte=1"`
	Rate       int           `mapstructure:"PASS_AUDIT_RATE" validate:"gte=0"`
	Padding    bool          `mapstructure:"PASS_AUDIT_PADDING"`
	Strength   bool          `mapstructure:"PASS_AUDIT_STRENGTH"`
	IgnoreFile string        `mapstructure:"PASS_AUDIT_IGNORE_FILE"`
}

// ServerConfig is only needed by the serve command.
type ServerConfig struct {
	Host    string `mapstructure:"PASS_AUDIT_HOST" validate:"required"`
	Port    uint16 `mapstructure:"PASS_AUDIT_PORT" validate:"required"`
	SelfTLS bool   `mapstructure:"PASS_AUDIT_SELF_TLS" validate:"required_without_all=TLSCert TLSKey"`
	TLSCert string `mapstructure:"PASS_AUDIT_TLS_CERT" validate:"required_if=SelfTLS false,required_with=TLSKey"`
	TLSKey  string `mapstructure:"PASS_AUDIT_TLS_KEY" validate:"required_if=SelfTLS false,required_with=TLSCert"`
	// APIToken enables the audit endpoint, requests must send it as a bearer token.
	APIToken string `mapstructure:"PASS_AUDIT_API_TOKEN" validate:"omitempty,min=16"`
}

func setDefaults(v *viper.Viper) {
	storeDir := ".password-store"
	if home, err := os.UserHomeDir(); err == nil {
		storeDir = filepath.Join(home, storeDir)
	}

	v.SetDefault("PASSWORD_STORE_DIR", storeDir)
	v.SetDefault("PASS_AUDIT_HIBP_URL", hibp.DefaultRangeURL)
	v.SetDefault("PASS_AUDIT_USER_AGENT", fmt.Sprintf("%s/%s", AppName, Version))
	v.SetDefault("PASS_AUDIT_TIMEOUT", "10s")
	v.SetDefault("PASS_AUDIT_RETRIES", 3)
	v.SetDefault("PASS_AUDIT_WORKERS", runtime.NumCPU())
	v.SetDefault("PASS_AUDIT_RATE", 0)
	v.SetDefault("PASS_AUDIT_PADDING", true)
	v.SetDefault("PASS_AUDIT_STRENGTH", true)
	v.SetDefault("PASS_AUDIT_IGNORE_FILE", ".pass-audit-ignore")
	v.SetDefault("PASS_AUDIT_HOST", "localhost")
	v.SetDefault("PASS_AUDIT_PORT", 3100)
}

func bindEnvs(v *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		fv := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch fv.Kind() {
		case reflect.Struct:
			bindEnvs(v, fv.Interface(), append(parts, tv)...)
		default:
			_ = v.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

// envNames maps the Go field names of iface to their environment names.
func envNames(iface interface{}) map[string]string {
	ift := reflect.TypeOf(iface)
	names := make(map[string]string, ift.NumField())
	for i := 0; i < ift.NumField(); i++ {
		field := ift.Field(i)
		if tv, ok := field.Tag.Lookup("mapstructure"); ok {
			names[field.Name] = tv
		} else {
			names[field.Name] = util.ToScreamingSnakeCase(field.Name)
		}
	}
	return names
}

// paramNames rewrites the field names in a validation tag param.
func paramNames(param string, names map[string]string) string {
	words := strings.Fields(param)
	for i, w := range words {
		if name, ok := names[w]; ok {
			words[i] = name
		}
	}
	return strings.Join(words, " ")
}

func msgForTag(fe validator.FieldError, names map[string]string) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "required_without_all":
		return fmt.Sprintf("This field is required if fields [%s] are missing", paramNames(fe.Param(), names))
	case "required_if":
		return fmt.Sprintf("This field is required if %s", paramNames(fe.Param(), names))
	case "required_with":
		return fmt.Sprintf("This is field requires the presence of %s", paramNames(fe.Param(), names))
	case "url":
		return "This field must be a valid URL"
	case "gt":
		return fmt.Sprintf("This field must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("This field must be at least %s characters long", fe.Param())
	case "gte":
		return fmt.Sprintf("This field must be at least %s", fe.Param())
	}
	return fe.Error() // default error
}

// DefaultFile is $XDG_CONFIG_HOME/pass-audit/config.yaml, or "" when the
// user config directory is unknown.
func DefaultFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, "config.yaml")
}

func newViper(file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	explicit := file != ""
	if !explicit {
		file = DefaultFile()
	}
	if file == "" {
		return v, nil
	}

	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if !explicit && errors.As(err, &pathErr) {
			// No default config file, environment only.
			return v, nil
		}
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}
	log.Debug().Msgf("using config file %s", v.ConfigFileUsed())
	return v, nil
}

func load(file string, config interface{}, zero interface{}) error {
	v, err := newViper(file)
	if err != nil {
		return err
	}

	// I hate this, but it works.
	// This is to not require a config file to unmarshal Envs in a struct
	// https://github.com/spf13/viper/issues/188#issuecomment-399884438
	bindEnvs(v, zero)

	if err = v.Unmarshal(config); err != nil {
		return fmt.Errorf("error reading configuration: %w", err)
	}
	return validate(config, envNames(zero))
}

func validate(config interface{}, names map[string]string) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("mapstructure")
	})

	if err := validate.Struct(config); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			var msgs []string
			for _, fe := range ve {
				msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), msgForTag(fe, names)))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, ". "))
		}
		return fmt.Errorf("error validating configuration: %w", err)
	}
	return nil
}

// Load reads the audit configuration. file may be empty.
func Load(file string) (Config, error) {
	config := Config{}
	err := load(file, &config, Config{})
	return config, err
}

// LoadServer reads the serve command configuration. file may be empty.
func LoadServer(file string) (ServerConfig, error) {
	config := ServerConfig{}
	err := load(file, &config, ServerConfig{})
	return config, err
}

// GPGOptions splits PASSWORD_STORE_GPG_OPTS into arguments.
func (c Config) GPGOptions() []string {
	return strings.Fields(c.GPGOpts)
}

// Validate checks a Config changed after Load, by command line flags.
func (c Config) Validate() error {
	return validate(&c, envNames(Config{}))
}

// Validate checks a ServerConfig changed after LoadServer.
func (c ServerConfig) Validate() error {
	return validate(&c, envNames(ServerConfig{}))
}
