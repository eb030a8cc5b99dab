package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. SCHEDORDER_DATABASE_DSN.
const EnvPrefix = "SCHEDORDER_"

// Store drivers.
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
)

// Config holds all application configuration
type Config struct {
	Log         LogConfig         `koanf:"log"`
	Database    DatabaseConfig    `koanf:"database"`
	Server      ServerConfig      `koanf:"server"`
	Extraction  ExtractionConfig  `koanf:"extraction"`
	TextExtract TextExtractConfig `koanf:"textextract"`
	NER         NERConfig         `koanf:"ner"`
	Archive     ArchiveConfig     `koanf:"archive"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver              string        `koanf:"driver"`
	DSN                 string        `koanf:"dsn"`
	MaxConns            int32         `koanf:"max_conns"`
	MinConns            int32         `koanf:"min_conns"`
	MaxConnLifetime     time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime     time.Duration `koanf:"max_conn_idle_time"`
	DialTimeout         time.Duration `koanf:"dial_timeout"`
	StatementTimeout    time.Duration `koanf:"statement_timeout"`
	FirestoreProject    string        `koanf:"firestore_project"`
	FirestoreCollection string        `koanf:"firestore_collection"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr        string        `koanf:"grpc_addr"`
	HTTPAddr        string        `koanf:"http_addr"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes"`
	ProcessTimeout  time.Duration `koanf:"process_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ExtractionConfig tunes the pipeline itself.
type ExtractionConfig struct {
	Timezone       string `koanf:"timezone"`
	KeywordsFile   string `koanf:"keywords_file"`
	KeyByPosition  bool   `koanf:"key_by_position"`
	StoreReviewed  bool   `koanf:"store_reviewed"`
	WatchWorkers   int    `koanf:"watch_workers"`
	WatchQueueSize int    `koanf:"watch_queue_size"`
}

// TextExtractConfig holds PDF/OCR tool configuration
type TextExtractConfig struct {
	PDFToText   string        `koanf:"pdftotext"`
	PDFToPPM    string        `koanf:"pdftoppm"`
	Tesseract   string        `koanf:"tesseract"`
	TessdataDir string        `koanf:"tessdata_dir"`
	Timeout     time.Duration `koanf:"timeout"`
	OCRFallback bool          `koanf:"ocr_fallback"`
}

// NERConfig points at an external entity recognizer. Empty URL selects the heuristic one.
type NERConfig struct {
	URL       string        `koanf:"url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
}

// ArchiveConfig configures the raw-document archive (MinIO/S3).
type ArchiveConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	UseSSL    bool   `koanf:"use_ssl"`
}

// LoadConfig reads the optional YAML file at path, overlays SCHEDORDER_* environment
// variables, fills defaults and validates the result.
//
//	SCHEDORDER_DATABASE_DSN        -> database.dsn
//	SCHEDORDER_NER_RATE_LIMIT      -> ner.rate_limit
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps SCHEDORDER_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.DSN == "" && c.Database.Driver == DriverSQLite {
		c.Database.DSN = "file:schedorder.db?_pragma=foreign_keys(1)"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 20
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = 2
	}
	if c.Database.MaxConnLifetime == 0 {
		c.Database.MaxConnLifetime = 30 * time.Minute
	}
	if c.Database.MaxConnIdleTime == 0 {
		c.Database.MaxConnIdleTime = 5 * time.Minute
	}
	if c.Database.DialTimeout == 0 {
		c.Database.DialTimeout = 3 * time.Second
	}
	if c.Database.FirestoreCollection == "" {
		c.Database.FirestoreCollection = "scheduling_orders"
	}

	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":8080"
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8081"
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 32 << 20
	}
	if c.Server.ProcessTimeout == 0 {
		c.Server.ProcessTimeout = 2 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Extraction.Timezone == "" {
		c.Extraction.Timezone = "UTC"
	}
	if c.Extraction.WatchWorkers == 0 {
		c.Extraction.WatchWorkers = 1
	}
	if c.Extraction.WatchQueueSize == 0 {
		c.Extraction.WatchQueueSize = 64
	}

	if c.TextExtract.PDFToText == "" {
		c.TextExtract.PDFToText = "pdftotext"
	}
	if c.TextExtract.PDFToPPM == "" {
		c.TextExtract.PDFToPPM = "pdftoppm"
	}
	if c.TextExtract.Tesseract == "" {
		c.TextExtract.Tesseract = "tesseract"
	}
	if c.TextExtract.Timeout == 0 {
		c.TextExtract.Timeout = 60 * time.Second
	}

	if c.NER.Timeout == 0 {
		c.NER.Timeout = 15 * time.Second
	}
	if c.NER.RateLimit == 0 {
		c.NER.RateLimit = 5
	}
	if c.NER.Burst == 0 {
		c.NER.Burst = 1
	}

	if c.Archive.Bucket == "" {
		c.Archive.Bucket = "scheduling-orders"
	}
}

// Validate checks the loaded configuration for values the services cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "database.dsn is required", ErrInvalidInput)
		}
	case DriverFirestore:
		if c.Database.FirestoreProject == "" {
			return NewAppError("CONFIG_ERROR", "database.firestore_project is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown database.driver %q", c.Database.Driver), ErrInvalidInput)
	}

	if _, err := time.LoadLocation(c.Extraction.Timezone); err != nil {
		return NewAppError("CONFIG_ERROR", "extraction.timezone is invalid", err)
	}
	if c.Extraction.WatchWorkers < 1 {
		return NewAppError("CONFIG_ERROR", "extraction.watch_workers must be positive", ErrInvalidInput)
	}
	if c.NER.RateLimit < 0 {
		return NewAppError("CONFIG_ERROR", "ner.rate_limit must not be negative", ErrInvalidInput)
	}
	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.Bucket == "") {
		return NewAppError("CONFIG_ERROR", "archive.endpoint and archive.bucket are required when archive is enabled", ErrInvalidInput)
	}
	return nil
}

// Location resolves the configured extraction timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Extraction.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
