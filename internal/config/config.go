// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

type StorageType string

const (
	StorageTypeFile   StorageType = "file"
	StorageTypeValKey StorageType = "valkey"
	StorageTypeMemory StorageType = "memory"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	HTTP HTTPServer `yaml:"http"`

	API       API       `yaml:"api"`
	Storage   Storage   `yaml:"storage"`
	ValKey    ValKey    `yaml:"valkey"`
	Catalog   Catalog   `yaml:"catalog"`
	KeepAlive KeepAlive `yaml:"keepAlive"`
}

type HTTPServer struct {
	Address           string        `yaml:"address" default:"127.0.0.1:8080"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout" default:"5s"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout" default:"5s"`
	// AllowedOrigins lists the browser origins allowed to call the server.
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// API describes the remote catalog API the client talks to.
type API struct {
	BaseURL       string        `yaml:"baseURL" default:"https://dummyjson.com"`
	Timeout       time.Duration `yaml:"timeout" default:"10s"`
	UserAgent     string        `yaml:"userAgent" default:"catalog-client"`
	ExpiresInMins int           `yaml:"expiresInMins" default:"15"`

	// StripPrefix is removed from the "/api/..." request paths. Leave it
	// empty when BaseURL points at a proxy that serves them as they are.
	StripPrefix string `yaml:"stripPrefix" default:"/api"`
}

// Storage selects where the cookie jar, local products and preferences are kept.
type Storage struct {
	Type StorageType `yaml:"type" default:"file"`
	Path string      `yaml:"path" default:".catalog-client"`
}

type ValKey struct {
	Host     commoncfg.SourceRef `yaml:"host"`
	User     commoncfg.SourceRef `yaml:"user"`
	Password commoncfg.SourceRef `yaml:"password"`
	Prefix   string              `yaml:"prefix" default:"catalog"`
}

type Catalog struct {
	PageSize       int           `yaml:"pageSize" default:"5"`
	SearchDebounce time.Duration `yaml:"searchDebounce" default:"400ms"`
	CacheTTL       time.Duration `yaml:"cacheTTL" default:"30s"`
}

type KeepAlive struct {
	Interval time.Duration `yaml:"interval" default:"10m"`
}
