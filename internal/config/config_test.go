package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/clusterview/internal/cluster"
	"github.com/UnknownOlympus/clusterview/internal/config"
	"github.com/UnknownOlympus/clusterview/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := config.MustLoad()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 4, cfg.Workers)
	assert.Empty(t, cfg.Provider.Type)
	assert.Equal(t, "benelux", cfg.Cluster.Group)
	assert.InDelta(t, 7.0, cfg.Cluster.Threshold, 1e-9)
	assert.Equal(t, 300*time.Millisecond, cfg.Cluster.Animation)
	assert.Equal(t, []float64{5, 8, 6, 9, 3}, cfg.Camera.Script)
	assert.Equal(t, 2*time.Second, cfg.Camera.Interval)
	assert.InDelta(t, 1080.0, cfg.Viewport.Width, 1e-9)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "5432", cfg.Database.Port)

	state, err := cfg.InitialState()
	require.NoError(t, err)
	assert.Equal(t, cluster.Collapsed, state)

	group, members, err := cfg.StaticGroup()
	require.NoError(t, err)
	assert.Equal(t, models.GeoPoint{Latitude: 51.502615, Longitude: 4.972326}, group.Anchor)
	require.Len(t, members, 3)
	assert.Equal(t, "Brussel", members[0].Label)
	require.NotNil(t, members[2].Location)
	assert.InDelta(t, 5.694722, members[2].Location.Longitude, 1e-9)
}

func TestMustLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLUSTERVIEW_ENV", "local")
	t.Setenv("CLUSTERVIEW_PORT", "9090")
	t.Setenv("CLUSTERVIEW_PROVIDER_TYPE", "google")
	t.Setenv("CLUSTERVIEW_PROVIDER_API_KEY", "testAPIKey")
	t.Setenv("CLUSTERVIEW_CLUSTER_THRESHOLD", "9.5")
	t.Setenv("CLUSTERVIEW_CLUSTER_ANIMATION", "1s")
	t.Setenv("CLUSTERVIEW_CLUSTER_INITIAL_STATE", "expanded")
	t.Setenv("CLUSTERVIEW_CAMERA_SCRIPT", "4,10")
	t.Setenv("DB_HOST", "testHost")
	t.Setenv("DB_PORT", "12345")
	t.Setenv("DB_USERNAME", "admin")
	t.Setenv("DB_PASSWORD", "adminpass")
	t.Setenv("DB_NAME", "testName")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "google", cfg.Provider.Type)
	assert.Equal(t, "testAPIKey", cfg.Provider.APIKey)
	assert.InDelta(t, 9.5, cfg.Cluster.Threshold, 1e-9)
	assert.Equal(t, time.Second, cfg.Cluster.Animation)
	assert.Equal(t, []float64{4, 10}, cfg.Camera.Script)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "testHost", cfg.Database.Host)
	assert.Equal(t, "12345", cfg.Database.Port)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.Equal(t, "adminpass", cfg.Database.Password)
	assert.Equal(t, "testName", cfg.Database.Name)

	state, err := cfg.InitialState()
	require.NoError(t, err)
	assert.Equal(t, cluster.Expanded, state)
}

func TestMustLoad_FromFile(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "clusterview.yaml")
	filet.File(t, path, `
env: development
provider:
  type: nominatim
  region: be
cluster:
  group: flanders
  anchor: "51.05,3.72"
  members:
    - id: gent
      label: Gent
      location: "51.054342,3.717424"
    - label: Brugge
      address: Markt, Brugge
`)
	t.Chdir(t.TempDir())
	t.Setenv("CLUSTERVIEW_CONFIG", path)
	t.Setenv("CLUSTERVIEW_ENV", "local")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env, "environment overrides the file")
	assert.Equal(t, "nominatim", cfg.Provider.Type)
	assert.Equal(t, "be", cfg.Provider.Region)

	group, members, err := cfg.StaticGroup()
	require.NoError(t, err)
	assert.Equal(t, "flanders", group.Name)
	require.Len(t, members, 2)
	assert.Equal(t, "gent", members[0].ID)
	assert.Equal(t, "brugge", members[1].ID)
	assert.Nil(t, members[1].Location)
	assert.Equal(t, "Markt, Brugge", members[1].Locator())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "invalid port",
			env:  map[string]string{"CLUSTERVIEW_PORT": "70000"},
			want: "port must be 1-65535",
		},
		{
			name: "google without key",
			env:  map[string]string{"CLUSTERVIEW_PROVIDER_TYPE": "google"},
			want: "provider.api_key is required",
		},
		{
			name: "unknown provider",
			env:  map[string]string{"CLUSTERVIEW_PROVIDER_TYPE": "visicom"},
			want: "provider.type must be google, nominatim or empty",
		},
		{
			name: "unknown initial state",
			env:  map[string]string{"CLUSTERVIEW_CLUSTER_INITIAL_STATE": "transitioning"},
			want: "cluster.initial_state",
		},
		{
			name: "invalid anchor",
			env:  map[string]string{"CLUSTERVIEW_CLUSTER_ANCHOR": "95,4"},
			want: "cluster.anchor",
		},
		{
			name: "database without user",
			env:  map[string]string{"DB_HOST": "localhost", "DB_NAME": "clusterview"},
			want: "DB_USERNAME and DB_NAME are required",
		},
		{
			name: "camera interval shorter than animation",
			env:  map[string]string{"CLUSTERVIEW_CAMERA_INTERVAL": "100ms"},
			want: "camera.interval 100ms must not be shorter than cluster.animation 300ms",
		},
		{
			name: "zero viewport",
			env:  map[string]string{"CLUSTERVIEW_VIEWPORT_WIDTH": "0"},
			want: "viewport must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := config.Load()

			require.Nil(t, cfg)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLUSTERVIEW_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load()

	require.ErrorContains(t, err, "failed to read config file")
}

func TestMustLoad_Panics(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLUSTERVIEW_WORKERS", "0")

	assert.Panics(t, func() {
		config.MustLoad()
	})
}

func TestParseGeoPoint(t *testing.T) {
	point, err := config.ParseGeoPoint(" 50.861592 , 4.359965 ")
	require.NoError(t, err)
	assert.Equal(t, models.GeoPoint{Latitude: 50.861592, Longitude: 4.359965}, point)

	_, err = config.ParseGeoPoint("50.86")
	require.ErrorContains(t, err, "lat,lon")

	_, err = config.ParseGeoPoint("north,4")
	require.ErrorContains(t, err, "failed to parse latitude")

	_, err = config.ParseGeoPoint("50,east")
	require.ErrorContains(t, err, "failed to parse longitude")

	_, err = config.ParseGeoPoint("50,200")
	require.NoError(t, err, "longitude is wrapped")
}
