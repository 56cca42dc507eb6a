// Package config loads the options of the authswitch demo and of
// applications embedding the reference pipeline.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-auth-switch/pipeline"
	"github.com/goliatone/go-errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by Load, e.g.
// AUTHSWITCH_SIGNING_KEY.
const EnvPrefix = "AUTHSWITCH"

const TextCodeInvalidConfig = "config_invalid"

var _ pipeline.Config = (*Options)(nil)

// Options configures the SQLite store and the reference pipeline.
type Options struct {
	DSN             string   `mapstructure:"dsn" validate:"required"`
	SigningKey      string   `mapstructure:"signing_key" validate:"required,min=16"`
	TokenExpiration int      `mapstructure:"token_expiration" validate:"gte=1"`
	Issuer          string   `mapstructure:"issuer" validate:"required"`
	Audience        []string `mapstructure:"audience" validate:"dive,required"`
	PasswordCost    int      `mapstructure:"password_cost" validate:"gte=4,lte=31"`
	Debug           bool     `mapstructure:"debug"`
}

func (o *Options) GetSigningKey() string   { return o.SigningKey }
func (o *Options) GetTokenExpiration() int { return o.TokenExpiration }
func (o *Options) GetIssuer() string       { return o.Issuer }
func (o *Options) GetAudience() []string   { return o.Audience }
func (o *Options) GetPasswordCost() int    { return o.PasswordCost }

var defaults = map[string]any{
	"dsn":              "file:authswitch?mode=memory&cache=shared",
	"signing_key":      "",
	"token_expiration": 24,
	"issuer":           "authswitch",
	"audience":         []string{"authswitch"},
	"password_cost":    10,
	"debug":            false,
}

// Load reads options from the file at path, when path is not empty, and
// from AUTHSWITCH_ environment variables, which take precedence. Values in
// overrides replace the built in defaults.
func Load(path string, overrides map[string]any) (*Options, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, value := range overrides {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to read config file").
				WithTextCode(TextCodeInvalidConfig).
				WithMetadata(map[string]any{"path": path})
		}
	}

	opts := &Options{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(opts, hook); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to decode config").
			WithTextCode(TextCodeInvalidConfig)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return opts, nil
}

// Validate checks the options against their validate tags.
func (o *Options) Validate() error {
	err := validator.New().Struct(o)
	if err == nil {
		return nil
	}

	fields := map[string]any{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Namespace()] = fe.Tag()
		}
	}

	return errors.Wrap(err, errors.CategoryValidation, "invalid configuration").
		WithTextCode(TextCodeInvalidConfig).
		WithMetadata(fields)
}
