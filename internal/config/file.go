package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// parseFile reads a JSON or YAML config file. The format is chosen by the
// file extension.
func parseFile(path string) (*StructuredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var fileCfg fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("error decoding yaml configs: %w", err)
		}
	default:
		if err = json.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("error decoding json configs: %w", err)
		}
	}

	return fileCfg.toStructured(), nil
}

// fileConfig mirrors StructuredConfig with duration fields that accept
// human-readable strings in both JSON and YAML.
type fileConfig struct {
	App struct {
		TokenSignKey  string   `json:"token_sign_key" yaml:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer" yaml:"token_issuer"`
		TokenDuration Duration `json:"token_duration" yaml:"token_duration"`
		BcryptCost    int      `json:"bcrypt_cost" yaml:"bcrypt_cost"`
		AdminName     string   `json:"admin_name" yaml:"admin_name"`
		AdminEmail    string   `json:"admin_email" yaml:"admin_email"`
		AdminPassword string   `json:"admin_password" yaml:"admin_password"`
		LogLevel      string   `json:"log_level" yaml:"log_level"`
		Version       string   `json:"version" yaml:"version"`
	} `json:"app" yaml:"app"`

	Storage struct {
		DB    DB    `json:"db" yaml:"db"`
		Files Files `json:"files" yaml:"files"`
	} `json:"storage" yaml:"storage"`

	Server struct {
		HTTPAddress    string   `json:"http_address" yaml:"http_address"`
		GRPCAddress    string   `json:"grpc_address" yaml:"grpc_address"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
	} `json:"server" yaml:"server"`

	Adapter struct {
		Generator struct {
			APIKey  string   `json:"api_key" yaml:"api_key"`
			BaseURL string   `json:"base_url" yaml:"base_url"`
			Model   string   `json:"model" yaml:"model"`
			Timeout Duration `json:"timeout" yaml:"timeout"`
		} `json:"generator" yaml:"generator"`
		Extractor struct {
			PDFToTextPath string   `json:"pdftotext_path" yaml:"pdftotext_path"`
			TesseractPath string   `json:"tesseract_path" yaml:"tesseract_path"`
			Timeout       Duration `json:"timeout" yaml:"timeout"`
		} `json:"extractor" yaml:"extractor"`
		NATS NATS `json:"nats" yaml:"nats"`
	} `json:"adapter" yaml:"adapter"`

	Workers struct {
		ExtractionInterval  Duration `json:"extraction_interval" yaml:"extraction_interval"`
		ExtractionBatchSize int      `json:"extraction_batch_size" yaml:"extraction_batch_size"`
		ReadinessInterval   Duration `json:"readiness_interval" yaml:"readiness_interval"`
	} `json:"workers" yaml:"workers"`
}

func (f *fileConfig) toStructured() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenSignKey:  f.App.TokenSignKey,
			TokenIssuer:   f.App.TokenIssuer,
			TokenDuration: time.Duration(f.App.TokenDuration),
			BcryptCost:    f.App.BcryptCost,
			AdminName:     f.App.AdminName,
			AdminEmail:    f.App.AdminEmail,
			AdminPassword: f.App.AdminPassword,
			LogLevel:      f.App.LogLevel,
			Version:       f.App.Version,
		},
		Storage: Storage{
			DB:    f.Storage.DB,
			Files: f.Storage.Files,
		},
		Server: Server{
			HTTPAddress:    f.Server.HTTPAddress,
			GRPCAddress:    f.Server.GRPCAddress,
			RequestTimeout: time.Duration(f.Server.RequestTimeout),
		},
		Adapter: Adapter{
			Generator: Generator{
				APIKey:  f.Adapter.Generator.APIKey,
				BaseURL: f.Adapter.Generator.BaseURL,
				Model:   f.Adapter.Generator.Model,
				Timeout: time.Duration(f.Adapter.Generator.Timeout),
			},
			Extractor: Extractor{
				PDFToTextPath: f.Adapter.Extractor.PDFToTextPath,
				TesseractPath: f.Adapter.Extractor.TesseractPath,
				Timeout:       time.Duration(f.Adapter.Extractor.Timeout),
			},
			NATS: f.Adapter.NATS,
		},
		Workers: Workers{
			ExtractionInterval:  time.Duration(f.Workers.ExtractionInterval),
			ExtractionBatchSize: f.Workers.ExtractionBatchSize,
			ReadinessInterval:   time.Duration(f.Workers.ReadinessInterval),
		},
	}
}

// Duration is a time.Duration that decodes from strings like "1h" or "30s"
// as well as from plain nanosecond numbers.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		return d.parse(value)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	tmp, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(tmp)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
