// Package config loads the lsqlearn command settings.
//
// Values are resolved in viper's usual order: command-line flags, then
// LSQLEARN_* environment variables (LSQLEARN_SGD_BATCHSIZE overrides
// sgd.batchSize), then the YAML file, then the defaults below. Without an
// explicit --config the file ~/.lsqlearn.yaml is read when it exists.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LSQLEARN"

// Config is the full set of command settings.
type Config struct {
	LogLevel string `mapstructure:"logLevel" validate:"oneof=debug info warn warning error off"`
	// Seed drives data generation, shuffling and the learning-rate search.
	Seed  int64       `mapstructure:"seed" validate:"gte=0"`
	Lasso LassoConfig `mapstructure:"lasso"`
	SGD   SGDConfig   `mapstructure:"sgd"`
}

// LassoConfig describes the synthetic regression problem and the λ path
// swept by "lsqlearn lasso".
type LassoConfig struct {
	Samples      int       `mapstructure:"samples" validate:"gt=1"`
	TestSamples  int       `mapstructure:"testSamples" validate:"gte=0"`
	Coefficients []float64 `mapstructure:"coefficients" validate:"min=1"`
	// Density below 1 draws a sparse design stored column-compressed.
	Density         float64 `mapstructure:"density" validate:"gt=0,lte=1"`
	Noise           float64 `mapstructure:"noise" validate:"gte=0"`
	Delta           float64 `mapstructure:"delta" validate:"gt=0"`
	MaxSweeps       int     `mapstructure:"maxSweeps" validate:"gt=0"`
	PathSteps       int     `mapstructure:"pathSteps" validate:"gt=0"`
	PathRatio       float64 `mapstructure:"pathRatio" validate:"gt=0,lt=1"`
	ValidationSplit float64 `mapstructure:"validationSplit" validate:"gt=0,lt=1"`
}

// SGDConfig describes the synthetic classification problem and the kernel
// bandwidths swept by "lsqlearn sgd".
type SGDConfig struct {
	Samples  int     `mapstructure:"samples" validate:"gt=1"`
	Features int     `mapstructure:"features" validate:"gt=0"`
	Classes  int     `mapstructure:"classes" validate:"gt=1"`
	Spread   float64 `mapstructure:"spread" validate:"gt=0"`

	Kernel string `mapstructure:"kernel" validate:"oneof=linear rbf fourier"`
	// Components is the RBF center count or the Fourier feature count; 0
	// keeps the kernel default.
	Components int `mapstructure:"components" validate:"gte=0"`
	// Bandwidths lists the σ values to sweep; 0 stands for the median
	// pairwise distance.
	Bandwidths []float64 `mapstructure:"bandwidths" validate:"min=1,dive,gte=0"`

	BatchSize       int     `mapstructure:"batchSize" validate:"gt=0"`
	MaxEpochs       int     `mapstructure:"maxEpochs" validate:"gte=2"`
	MonitoringFreq  int     `mapstructure:"monitoringFreq" validate:"gt=0"`
	DeltaPercent    float64 `mapstructure:"deltaPercent" validate:"gt=0"`
	Eta0            float64 `mapstructure:"eta0" validate:"gte=0"`
	ValidationSplit float64 `mapstructure:"validationSplit" validate:"gt=0,lt=1"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("seed", 42)

	v.SetDefault("lasso.samples", 250)
	v.SetDefault("lasso.testSamples", 100)
	v.SetDefault("lasso.coefficients", []float64{3, -2, 1.5, 0, 0, 0, 0, 0, 0, 0})
	v.SetDefault("lasso.density", 1.0)
	v.SetDefault("lasso.noise", 1.0)
	v.SetDefault("lasso.delta", 1e-3)
	v.SetDefault("lasso.maxSweeps", 10000)
	v.SetDefault("lasso.pathSteps", 10)
	v.SetDefault("lasso.pathRatio", 0.5)
	v.SetDefault("lasso.validationSplit", 0.2)

	v.SetDefault("sgd.samples", 1500)
	v.SetDefault("sgd.features", 2)
	v.SetDefault("sgd.classes", 3)
	v.SetDefault("sgd.spread", 1.0)
	v.SetDefault("sgd.kernel", "rbf")
	v.SetDefault("sgd.components", 0)
	v.SetDefault("sgd.bandwidths", []float64{0.5, 1, 0})
	v.SetDefault("sgd.batchSize", 50)
	v.SetDefault("sgd.maxEpochs", 50)
	v.SetDefault("sgd.monitoringFreq", 600)
	v.SetDefault("sgd.deltaPercent", 0.5)
	v.SetDefault("sgd.eta0", 0.0)
	v.SetDefault("sgd.validationSplit", 0.2)
}

// Flag names bound to configuration keys.
var flagKeys = map[string]string{
	"log-level": "logLevel",
	"seed":      "seed",
}

// Load resolves the configuration. path names a YAML file and must exist
// when given; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, lsqErrors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, lsqErrors.Wrapf(err, "read config file %s", path)
		}
	} else if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".lsqlearn")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, lsqErrors.Wrapf(err, "read config file %s", v.ConfigFileUsed())
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, lsqErrors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if err := validator.New().Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return lsqErrors.Wrap(err, "validate config")
		}
		for _, fe := range verrs {
			result = multierror.Append(result, fmt.Errorf("%s: %v fails %q", stripPrefix(fe.Namespace()), fe.Value(), fieldRule(fe)))
		}
	}
	if c.SGD.BatchSize > 0 && c.SGD.MonitoringFreq%c.SGD.BatchSize != 0 {
		result = multierror.Append(result, fmt.Errorf("SGD.MonitoringFreq: %d is not a multiple of SGD.BatchSize %d",
			c.SGD.MonitoringFreq, c.SGD.BatchSize))
	}
	if err := result.ErrorOrNil(); err != nil {
		return lsqErrors.Mark(err, lsqErrors.ErrInvalidConfig)
	}
	return nil
}

func fieldRule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}
