// Package config resolves run defaults from built-in values, an optional
// dotenv file and the process environment. Flags override all of these.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"mlst/internal/blast"
	"mlst/internal/source"
	"mlst/internal/typing"
)

// DefaultEnvFile is read when present; its absence is not an error.
const DefaultEnvFile = ".env"

// Environment keys.
const (
	EnvFile          = "MLST_ENV_FILE"
	EnvMinIdentity   = "MLST_MIN_IDENTITY"
	EnvBadIdentity   = "MLST_BAD_IDENTITY"
	EnvMaxBadAlleles = "MLST_MAX_BAD_ALLELES"
	EnvScoreMargin   = "MLST_SCORE_MARGIN"
	EnvSelection     = "MLST_SELECTION"
	EnvOutput        = "MLST_OUTPUT"
	EnvDB            = "MLST_DB"
	EnvMetricsFile   = "MLST_METRICS_FILE"
	EnvS3Region      = "MLST_S3_REGION"
	EnvS3Endpoint    = "MLST_S3_ENDPOINT"
	EnvS3PathStyle   = "MLST_S3_PATH_STYLE"
)

// Config is the resolved set of defaults for one invocation.
type Config struct {
	MinIdentity   float64
	BadIdentity   float64
	MaxBadAlleles int
	ScoreMargin   float64
	Selection     string
	Output        string
	DB            string
	MetricsFile   string
	S3            source.S3Config
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		MinIdentity:   blast.DefaultMinIdentity,
		BadIdentity:   typing.DefaultBadIdentity,
		MaxBadAlleles: typing.DefaultMaxBadAlleles,
		ScoreMargin:   typing.DefaultScoreMargin,
		Selection:     string(blast.SelectQuality),
		Output:        "text",
	}
}

// Load layers the dotenv file and getenv over Defaults. envFile, when empty,
// comes from MLST_ENV_FILE and then DefaultEnvFile; only an explicitly named
// file must exist.
func Load(envFile string, getenv func(string) string) (Config, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = getenv(EnvFile)
		explicit = envFile != ""
	}
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dot, err := godotenv.Read(envFile)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read env file %s: %w", envFile, err)
		}
		dot = map[string]string{}
	}
	lookup := func(k string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return dot[k]
	}

	c := Defaults()
	var errs []error
	setFloat := func(key string, dst *float64) {
		if v := lookup(key); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s=%q: not a number", key, v))
				return
			}
			*dst = f
		}
	}
	setFloat(EnvMinIdentity, &c.MinIdentity)
	setFloat(EnvBadIdentity, &c.BadIdentity)
	setFloat(EnvScoreMargin, &c.ScoreMargin)
	if v := lookup(EnvMaxBadAlleles); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: not an integer", EnvMaxBadAlleles, v))
		} else {
			c.MaxBadAlleles = n
		}
	}
	if v := lookup(EnvSelection); v != "" {
		c.Selection = v
	}
	if v := lookup(EnvOutput); v != "" {
		c.Output = v
	}
	c.DB = lookup(EnvDB)
	c.MetricsFile = lookup(EnvMetricsFile)

	c.S3 = source.S3Config{
		Region:          lookup(EnvS3Region),
		Endpoint:        lookup(EnvS3Endpoint),
		PathStyle:       strings.EqualFold(lookup(EnvS3PathStyle), "true"),
		AccessKeyID:     lookup("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: lookup("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    lookup("AWS_SESSION_TOKEN"),
	}
	if c.S3.Region == "" {
		c.S3.Region = lookup("AWS_REGION")
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return c, nil
}
