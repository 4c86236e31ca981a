package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/morph/internal/errors"
	"github.com/vango-dev/morph/pkg/server"
	"github.com/vango-dev/morph/pkg/session"
)

const (
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "morph.yaml"

	// DefaultApp is the built-in application served when none is named.
	DefaultApp = "counter"
)

// Environment variables that override the file.
const (
	EnvAddr      = "MORPH_ADDR"
	EnvRedisAddr = "MORPH_REDIS_ADDR"
	EnvLogLevel  = "MORPH_LOG_LEVEL"
	EnvApp       = "MORPH_APP"
	EnvS3Bucket  = "MORPH_S3_BUCKET"

	// Standard AWS variables fill the s3 section when it leaves them empty.
	EnvAWSRegion    = "AWS_REGION"
	EnvAWSAccessKey = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretKey = "AWS_SECRET_ACCESS_KEY"
)

// Config is the morphd configuration.
type Config struct {
	// App names the built-in application to serve.
	App string `yaml:"app"`

	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`

	path string
	node *yaml.Node
}

// ServerConfig configures the HTTP and websocket server.
type ServerConfig struct {
	Addr               string        `yaml:"addr"`
	Title              string        `yaml:"title"`
	MountID            string        `yaml:"mount_id"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`
	BatchDelay         time.Duration `yaml:"batch_delay"`
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxMessageSize     int64         `yaml:"max_message_size"`
	SendQueueSize      int           `yaml:"send_queue_size"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`

	// AllowedOrigins lists the origins allowed to open a websocket. Empty
	// allows same-origin requests only; "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SessionConfig configures session limits.
type SessionConfig struct {
	MaxSessions      int           `yaml:"max_sessions"`
	MaxSessionsPerIP int           `yaml:"max_sessions_per_ip"`
	ResumeWindow     time.Duration `yaml:"resume_window"`
}

// StoreConfig selects where session snapshots are kept.
type StoreConfig struct {
	// Driver is "memory", "redis" or "s3".
	Driver string      `yaml:"driver"`
	Redis  RedisConfig `yaml:"redis"`
	S3     S3Config    `yaml:"s3"`
}

// RedisConfig configures the redis session store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// S3Config configures the S3 session store.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// MetricsConfig configures Prometheus metric names.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// New returns a Config with defaults.
func New() *Config {
	d := server.DefaultConfig()
	return &Config{
		App: DefaultApp,
		Server: ServerConfig{
			Addr:               d.Address,
			Title:              d.Title,
			MountID:            d.MountID,
			ReadTimeout:        d.ReadTimeout,
			WriteTimeout:       d.WriteTimeout,
			HandshakeTimeout:   d.HandshakeTimeout,
			HeartbeatInterval:  d.HeartbeatInterval,
			BatchDelay:         d.BatchDelay,
			CheckpointInterval: d.CheckpointInterval,
			ShutdownTimeout:    d.ShutdownTimeout,
			MaxMessageSize:     d.MaxMessageSize,
			SendQueueSize:      d.SendQueueSize,
		},
		Session: SessionConfig{
			MaxSessions:      d.Session.MaxSessions,
			MaxSessionsPerIP: d.Session.MaxSessionsPerIP,
			ResumeWindow:     d.Session.ResumeWindow,
		},
		Store: StoreConfig{
			Driver: "memory",
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: session.DefaultRedisPrefix},
			S3:     S3Config{Prefix: session.DefaultS3Prefix, Region: "us-east-1"},
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Namespace: "morph"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := New()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes a JSON or YAML file onto c. Keys c does not know are
// an error.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.CodeConfigNotFound).
				WithDetail("No configuration file at " + path)
		}
		return errors.New(errors.CodeConfigNotFound).Wrap(err)
	}
	c.path = path

	raw := map[string]any{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return errors.New(errors.CodeConfigParse).Wrap(err)
		}
	} else {
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return errors.New(errors.CodeConfigParse).
				WithLocationFromError(path, err).
				Wrap(err)
		}
		if len(doc.Content) > 0 {
			if err := doc.Decode(&raw); err != nil {
				return errors.New(errors.CodeConfigParse).
					WithLocationFromError(path, err).
					Wrap(err)
			}
			c.node = &doc
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "yaml",
		Result:           c,
	})
	if err != nil {
		return errors.New(errors.CodeConfigParse).Wrap(err)
	}
	if err := decoder.Decode(raw); err != nil {
		return errors.New(errors.CodeConfigParse).
			WithDetail("The configuration does not match the expected schema.").
			Wrap(err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Store.Driver = "redis"
		c.Store.Redis.Addr = v
	}
	if v, ok := lookup(EnvS3Bucket); ok && v != "" {
		c.Store.Driver = "s3"
		c.Store.S3.Bucket = v
	}
	fill := func(dst *string, key string) {
		if v, ok := lookup(key); ok && *dst == "" {
			*dst = v
		}
	}
	fill(&c.Store.S3.AccessKeyID, EnvAWSAccessKey)
	fill(&c.Store.S3.SecretAccessKey, EnvAWSSecretKey)
	if v, ok := lookup(EnvAWSRegion); ok && v != "" {
		c.Store.S3.Region = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvApp); ok && v != "" {
		c.App = v
	}
	return nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return c.fail(errors.New(errors.CodeInvalidAddress).
			WithDetailf("server.addr is %q: %v", c.Server.Addr, err), "server", "addr")
	}

	durations := []struct {
		section, key string
		value        time.Duration
	}{
		{"server", "read_timeout", c.Server.ReadTimeout},
		{"server", "write_timeout", c.Server.WriteTimeout},
		{"server", "handshake_timeout", c.Server.HandshakeTimeout},
		{"server", "heartbeat_interval", c.Server.HeartbeatInterval},
		{"server", "batch_delay", c.Server.BatchDelay},
		{"server", "checkpoint_interval", c.Server.CheckpointInterval},
		{"server", "shutdown_timeout", c.Server.ShutdownTimeout},
		{"session", "resume_window", c.Session.ResumeWindow},
	}
	for _, d := range durations {
		if d.value < 0 {
			return c.fail(errors.New(errors.CodeInvalidDuration).
				WithDetailf("%s.%s is %s", d.section, d.key, d.value), d.section, d.key)
		}
	}

	limits := []struct {
		section, key string
		value        int64
	}{
		{"server", "max_message_size", c.Server.MaxMessageSize},
		{"server", "send_queue_size", int64(c.Server.SendQueueSize)},
		{"session", "max_sessions", int64(c.Session.MaxSessions)},
		{"session", "max_sessions_per_ip", int64(c.Session.MaxSessionsPerIP)},
	}
	for _, l := range limits {
		if l.value < 0 {
			return c.fail(errors.New(errors.CodeInvalidLimit).
				WithDetailf("%s.%s is %d", l.section, l.key, l.value), l.section, l.key)
		}
	}

	switch c.Store.Driver {
	case "", "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			return c.fail(errors.New(errors.CodeRedisAddress), "store", "redis", "addr")
		}
	case "s3":
		if c.Store.S3.Bucket == "" {
			return c.fail(errors.New(errors.CodeS3Bucket), "store", "s3", "bucket")
		}
	default:
		return c.fail(errors.New(errors.CodeUnknownStore).
			WithDetailf("store.driver is %q; it must be \"memory\", \"redis\" or \"s3\".", c.Store.Driver), "store", "driver")
	}

	if _, err := c.level(); err != nil {
		return c.fail(errors.New(errors.CodeConfigParse).
			WithDetailf("log.level is %q; use debug, info, warn or error.", c.Log.Level).
			Wrap(err), "log", "level")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return c.fail(errors.New(errors.CodeConfigParse).
			WithDetailf("log.format is %q; use text or json.", c.Log.Format), "log", "format")
	}
	return nil
}

// fail points err at the key path in the loaded YAML file, when there is
// one.
func (c *Config) fail(err *errors.MorphError, keys ...string) error {
	if line, col := c.locate(keys...); line > 0 {
		err.WithLocation(c.path, line, col)
	}
	return err
}

// locate returns the position of the value at keys in the YAML document.
func (c *Config) locate(keys ...string) (int, int) {
	if c.node == nil || len(c.node.Content) == 0 {
		return 0, 0
	}
	n := c.node.Content[0]
	for _, key := range keys {
		if n.Kind != yaml.MappingNode {
			return 0, 0
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return 0, 0
		}
		n = next
	}
	return n.Line, n.Column
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Logger builds the slog logger described by the log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := c.level()
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OpenStore opens the configured session store. Remote stores are pinged
// before they are returned.
func (c *Config) OpenStore(ctx context.Context) (session.Store, error) {
	switch c.Store.Driver {
	case "redis":
		return c.openRedis(ctx)
	case "s3":
		return c.openS3(ctx)
	}
	return session.NewMemoryStore(), nil
}

func (c *Config) openS3(ctx context.Context) (session.Store, error) {
	cfg := c.Store.S3
	store := session.NewS3Store(session.S3Config{
		Bucket:          cfg.Bucket,
		Prefix:          cfg.Prefix,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		PathStyle:       cfg.PathStyle,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, errors.New(errors.CodeStoreUnavailable).
			WithDetailf("S3 bucket %s is not reachable.", cfg.Bucket).
			Wrap(err)
	}
	return store, nil
}

func (c *Config) openRedis(ctx context.Context) (session.Store, error) {
	r := c.Store.Redis
	var opts []session.RedisOption
	if r.Prefix != "" {
		opts = append(opts, session.WithRedisPrefix(r.Prefix))
	}
	store := session.NewRedisStore(r.Addr, r.Password, r.DB, opts...)
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, errors.New(errors.CodeStoreUnavailable).
			WithDetailf("Redis at %s did not answer.", r.Addr).
			Wrap(err)
	}
	return store, nil
}

// ServerConfig converts the configuration for server.New. store may be
// nil to keep snapshots in memory.
func (c *Config) ServerConfig(store session.Store) *server.Config {
	return &server.Config{
		Address:            c.Server.Addr,
		MountID:            c.Server.MountID,
		Title:              c.Server.Title,
		ReadTimeout:        c.Server.ReadTimeout,
		WriteTimeout:       c.Server.WriteTimeout,
		HandshakeTimeout:   c.Server.HandshakeTimeout,
		HeartbeatInterval:  c.Server.HeartbeatInterval,
		BatchDelay:         c.Server.BatchDelay,
		CheckpointInterval: c.Server.CheckpointInterval,
		ShutdownTimeout:    c.Server.ShutdownTimeout,
		MaxMessageSize:     c.Server.MaxMessageSize,
		SendQueueSize:      c.Server.SendQueueSize,
		CheckOrigin:        checkOrigin(c.Server.AllowedOrigins),
		TrustedProxies:     c.Server.TrustedProxies,
		Session: session.Config{
			MaxSessions:      c.Session.MaxSessions,
			MaxSessionsPerIP: c.Session.MaxSessionsPerIP,
			ResumeWindow:     c.Session.ResumeWindow,
		},
		Store: store,
	}
}

// MetricsOptions returns the metric naming options for server.WithMetrics.
func (c *Config) MetricsOptions() []server.MetricsOption {
	opts := []server.MetricsOption{server.WithNamespace(c.Metrics.Namespace)}
	if c.Metrics.Subsystem != "" {
		opts = append(opts, server.WithSubsystem(c.Metrics.Subsystem))
	}
	return opts
}

// checkOrigin returns nil, gorilla's same-origin check, when no origins
// are listed.
func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return set[strings.ToLower(u.Scheme+"://"+u.Host)]
	}
}

// String renders the configuration as YAML with the redis password
// masked.
func (c *Config) String() string {
	out := *c
	if out.Store.Redis.Password != "" {
		out.Store.Redis.Password = "****"
	}
	if out.Store.S3.SecretAccessKey != "" {
		out.Store.S3.SecretAccessKey = "****"
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}

