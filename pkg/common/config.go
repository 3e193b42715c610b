package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	z "github.com/Oudwins/zog"
	"gopkg.in/yaml.v3"
)

const (
	DBTypeFile     = "file"
	DBTypeMemory   = "memory"
	DBTypePostgres = "postgres"
)

var ErrMissingDSN = errors.New("config: postgres requires " + EnvKeyDBDSN)

// Config is the engine configuration. Values come from defaults, then the
// optional YAML file named by ENGINE_CONFIG, then environment variables.
type Config struct {
	DBType           string  `yaml:"db_type"`
	DBPath           string  `yaml:"db_path"`
	DBDSN            string  `yaml:"db_dsn"`
	HttpHostPort     string  `yaml:"http_host_port"`
	Workers          int     `yaml:"workers"`
	OperandKind      string  `yaml:"operand_kind"`
	DifferenceFiscal bool    `yaml:"difference_fiscal"`
	RunRate          float64 `yaml:"run_rate"`
	RunBurst         int     `yaml:"run_burst"`
}

var configSchema = z.Struct(z.Shape{
	"DBType":      z.String().OneOf([]string{DBTypeFile, DBTypeMemory, DBTypePostgres}).Required(),
	"Workers":     z.Int().GTE(1),
	"OperandKind": z.String().OneOf([]string{"Consumption", "Accumulated"}).Required(),
	"RunRate":     z.Float64().GT(0),
	"RunBurst":    z.Int().GTE(1),
})

func DefaultConfig() Config {
	return Config{
		DBType:       DBTypeFile,
		DBPath:       "engine.db",
		HttpHostPort: ":1080",
		Workers:      4,
		OperandKind:  "Consumption",
		RunRate:      0.2,
		RunBurst:     1,
	}
}

func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv(EnvKeyEngineConfig); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if issues := configSchema.Validate(&cfg); issues != nil {
		return cfg, fmt.Errorf("config: invalid: %v", issues)
	}
	if cfg.DBType == DBTypePostgres && cfg.DBDSN == "" {
		return cfg, ErrMissingDSN
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.DBType, EnvKeyDBType)
	setString(&cfg.DBPath, EnvKeyDBPath)
	setString(&cfg.DBDSN, EnvKeyDBDSN)
	setString(&cfg.HttpHostPort, EnvKeyHttpHostPort)
	setString(&cfg.OperandKind, EnvKeyOperandKind)

	if raw, ok := lookup(EnvKeyWorkers); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("config: invalid %s, should be an int value: %w", EnvKeyWorkers, err)
		}
		cfg.Workers = n
	}
	if raw, ok := lookup(EnvKeyDifferenceFiscal); ok {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("config: invalid %s, should be a bool value: %w", EnvKeyDifferenceFiscal, err)
		}
		cfg.DifferenceFiscal = b
	}
	if raw, ok := lookup(EnvKeyRunRate); ok {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("config: invalid %s, should be a float64 value: %w", EnvKeyRunRate, err)
		}
		cfg.RunRate = f
	}
	if raw, ok := lookup(EnvKeyRunBurst); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("config: invalid %s, should be an int value: %w", EnvKeyRunBurst, err)
		}
		cfg.RunBurst = n
	}
	return nil
}

func lookup(key string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	return raw, raw != ""
}

func setString(dst *string, key string) {
	if raw, ok := lookup(key); ok {
		*dst = raw
	}
}
