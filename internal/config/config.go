package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/clusterview/internal/cluster"
	"github.com/UnknownOlympus/clusterview/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load, e.g. CLUSTERVIEW_CLUSTER_THRESHOLD.
const EnvPrefix = "CLUSTERVIEW"

// Config holds the configuration of the cluster viewer.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Port: The port of the monitoring server.
// - Workers: The number of concurrent workers locating members.
// - Provider: The geocoding provider used for members without coordinates.
// - Cluster: The group that is shown and how it behaves.
// - Camera: The scripted zoom sequence replayed on the map.
// - Viewport: The size of the map view in pixels.
// - Database: Configuration settings for the PostgreSQL database, empty host means no database.
type Config struct {
	Env      string         `mapstructure:"env"`
	Port     int            `mapstructure:"port"`
	Workers  int            `mapstructure:"workers"`
	Provider ProviderConfig `mapstructure:"provider"`
	Cluster  ClusterConfig  `mapstructure:"cluster"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Viewport ViewportConfig `mapstructure:"viewport"`
	Database PostgresConfig `mapstructure:"postgres"`
}

// ProviderConfig selects and tunes the geocoding provider. An empty type disables geocoding.
type ProviderConfig struct {
	Type      string `mapstructure:"type"`       // google or nominatim
	APIKey    string `mapstructure:"api_key"`    // required by google
	RateLimit int    `mapstructure:"rate_limit"` // requests per second, 0 keeps the provider default
	Region    string `mapstructure:"region"`     // ccTLD biasing results, e.g. nl
}

// ClusterConfig describes the group and its transitions.
type ClusterConfig struct {
	Group        string         `mapstructure:"group"`
	Threshold    float64        `mapstructure:"threshold"`
	Animation    time.Duration  `mapstructure:"animation"`
	InitialState string         `mapstructure:"initial_state"`
	Anchor       string         `mapstructure:"anchor"`  // "lat,lon", used without a database
	Members      []MemberConfig `mapstructure:"members"` // used without a database
}

// MemberConfig is a member of the static group. Location is "lat,lon" or empty to geocode Address or Label.
type MemberConfig struct {
	ID       string `mapstructure:"id"`
	Label    string `mapstructure:"label"`
	Address  string `mapstructure:"address"`
	Location string `mapstructure:"location"`
}

// CameraConfig is the zoom script replayed by the demo host.
type CameraConfig struct {
	Script   []float64     `mapstructure:"script"`
	Interval time.Duration `mapstructure:"interval"`
	Start    float64       `mapstructure:"start"` // zoom before the first scripted move
}

type ViewportConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`     // Host is the database server address.
	Port     string `mapstructure:"port"`     // Port is the database server port.
	User     string `mapstructure:"user"`     // User is the database user.
	Password string `mapstructure:"password"` // Password is the database user's password.
	Name     string `mapstructure:"db_name"`  // Name is the name of the database.
}

// Enabled reports whether a database host is configured.
func (p PostgresConfig) Enabled() bool { return p.Host != "" }

// MustLoad loads the configuration and panics if it cannot be read or is invalid.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	return cfg
}

// Load reads .env, an optional clusterview.yaml and CLUSTERVIEW_* environment variables,
// in increasing order of precedence. The file is looked up in . and ./configs unless
// CLUSTERVIEW_CONFIG names one explicitly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("clusterview")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"postgres.host":     "DB_HOST",
		"postgres.port":     "DB_PORT",
		"postgres.user":     "DB_USERNAME",
		"postgres.password": "DB_PASSWORD",
		"postgres.db_name":  "DB_NAME",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("port", 8080)
	v.SetDefault("workers", 4)
	v.SetDefault("provider.type", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.rate_limit", 0)
	v.SetDefault("provider.region", "")
	v.SetDefault("cluster.group", "benelux")
	v.SetDefault("cluster.threshold", cluster.DefaultZoomThreshold)
	v.SetDefault("cluster.animation", cluster.DefaultAnimationDuration.String())
	v.SetDefault("cluster.initial_state", cluster.Collapsed.String())
	v.SetDefault("cluster.anchor", "51.502615,4.972326")
	v.SetDefault("cluster.members", []map[string]any{
		{"id": "brussel", "label": "Brussel", "location": "50.861592,4.359965"},
		{"id": "utrecht", "label": "Utrecht", "location": "52.090432,5.122310"},
		{"id": "maastricht", "label": "Maastricht", "location": "50.851274,5.694722"},
	})
	v.SetDefault("camera.script", []float64{5, 8, 6, 9, 3})
	v.SetDefault("camera.interval", "2s")
	v.SetDefault("camera.start", 5)
	v.SetDefault("viewport.width", 1080)
	v.SetDefault("viewport.height", 1920)
	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db_name", "")
}

// Validate checks that the configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	const maxPort = 65535
	if c.Port <= 0 || c.Port > maxPort {
		errs = append(errs, fmt.Sprintf("port must be 1-65535, got %d", c.Port))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("workers must be positive, got %d", c.Workers))
	}
	switch c.Provider.Type {
	case "", "nominatim":
	case "google":
		if c.Provider.APIKey == "" {
			errs = append(errs, "provider.api_key is required for the google provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("provider.type must be google, nominatim or empty, got %q", c.Provider.Type))
	}
	if c.Cluster.Group == "" {
		errs = append(errs, "cluster.group is required")
	}
	if c.Cluster.Threshold < 0 {
		errs = append(errs, fmt.Sprintf("cluster.threshold must not be negative, got %g", c.Cluster.Threshold))
	}
	if c.Cluster.Animation <= 0 {
		errs = append(errs, "cluster.animation must be positive")
	}
	if _, err := c.InitialState(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Camera.Interval <= 0 {
		errs = append(errs, "camera.interval must be positive")
	} else if c.Camera.Interval < c.Cluster.Animation {
		errs = append(errs, fmt.Sprintf("camera.interval %s must not be shorter than cluster.animation %s",
			c.Camera.Interval, c.Cluster.Animation))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, fmt.Sprintf("viewport must be positive, got %gx%g", c.Viewport.Width, c.Viewport.Height))
	}
	if c.Database.Enabled() && (c.Database.User == "" || c.Database.Name == "") {
		errs = append(errs, "DB_USERNAME and DB_NAME are required when DB_HOST is set")
	}
	if !c.Database.Enabled() {
		if _, _, err := c.StaticGroup(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// InitialState parses cluster.initial_state.
func (c *Config) InitialState() (cluster.State, error) {
	state, err := cluster.ParseState(c.Cluster.InitialState)
	if err != nil {
		return 0, fmt.Errorf("cluster.initial_state: %w", err)
	}

	return state, nil
}

// StaticGroup returns the group described by cluster.anchor and cluster.members.
func (c *Config) StaticGroup() (models.GroupRecord, []models.MemberSeed, error) {
	anchor, err := ParseGeoPoint(c.Cluster.Anchor)
	if err != nil {
		return models.GroupRecord{}, nil, fmt.Errorf("cluster.anchor: %w", err)
	}

	seen := make(map[string]bool, len(c.Cluster.Members))
	members := make([]models.MemberSeed, 0, len(c.Cluster.Members))
	for idx, member := range c.Cluster.Members {
		seed := models.MemberSeed{ID: member.ID, Label: member.Label, Address: member.Address}
		if seed.ID == "" {
			seed.ID = strings.ToLower(member.Label)
		}
		if seed.ID == "" {
			return models.GroupRecord{}, nil, fmt.Errorf("cluster.members[%d]: id or label is required", idx)
		}
		if seen[seed.ID] {
			return models.GroupRecord{}, nil, fmt.Errorf("cluster.members[%d]: duplicate id %s", idx, seed.ID)
		}
		seen[seed.ID] = true

		if member.Location != "" {
			location, errLoc := ParseGeoPoint(member.Location)
			if errLoc != nil {
				return models.GroupRecord{}, nil, fmt.Errorf("cluster.members[%d]: %w", idx, errLoc)
			}
			seed.Location = &location
		}
		members = append(members, seed)
	}

	return models.GroupRecord{ID: 1, Name: c.Cluster.Group, Anchor: anchor}, members, nil
}

// ParseGeoPoint parses "lat,lon".
func ParseGeoPoint(value string) (models.GeoPoint, error) {
	latText, lonText, found := strings.Cut(value, ",")
	if !found {
		return models.GeoPoint{}, fmt.Errorf("location %q must be formatted as lat,lon", value)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to parse latitude %q: %w", latText, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to parse longitude %q: %w", lonText, err)
	}

	return models.NewGeoPoint(lat, lon)
}
