package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wheelibin/homeserver/internal/constants"
)

type HueConfig struct {
	DiscoveryURL string        `mapstructure:"discoveryUrl"`
	DeviceType   string        `mapstructure:"deviceType"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type LightsConfig struct {
	// spacing between bridge calls of a bulk update
	BulkInterval time.Duration `mapstructure:"bulkInterval"`
}

// SunConfig optionally clamps the calculated sunrise and sunset, e.g. "06:30"
type SunConfig struct {
	SunriseMin string `mapstructure:"sunriseMin"`
	SunriseMax string `mapstructure:"sunriseMax"`
	SunsetMin  string `mapstructure:"sunsetMin"`
	SunsetMax  string `mapstructure:"sunsetMax"`
}

type Config struct {
	Port         int          `mapstructure:"port"`
	LogLevel     string       `mapstructure:"logLevel"`
	LogFile      string       `mapstructure:"logFile"`
	StorageFile  string       `mapstructure:"storageFile"`
	DatabaseFile string       `mapstructure:"databaseFile"`
	GeoLocation  string       `mapstructure:"geoLocation"`
	Hue          HueConfig    `mapstructure:"hue"`
	Lights       LightsConfig `mapstructure:"lights"`
	Sun          SunConfig    `mapstructure:"sun"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFile", "")
	v.SetDefault("storageFile", "data/storage.json")
	v.SetDefault("databaseFile", "data/homeserver.db")
	v.SetDefault("geoLocation", "51.5072,-0.1276")
	v.SetDefault("hue.discoveryUrl", constants.DefaultHueDiscoveryURL)
	v.SetDefault("hue.deviceType", constants.DefaultHueDeviceType)
	v.SetDefault("hue.timeout", constants.DefaultHueTimeout)
	v.SetDefault("lights.bulkInterval", constants.DefaultBulkUpdateInterval)
	v.SetDefault("sun.sunriseMin", "")
	v.SetDefault("sun.sunriseMax", "")
	v.SetDefault("sun.sunsetMin", "")
	v.SetDefault("sun.sunsetMax", "")
}

// Load reads config.json from the first of paths that has one (or the standard
// locations when none are given), applies HOMESERVER_ environment overrides and
// fills in defaults. A missing config file is not an error.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	if len(paths) == 0 {
		paths = []string{"/etc/homeserver/", "$HOME/.config/homeserver/", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// e.g. HOMESERVER_HUE_TIMEOUT=5s
	v.SetEnvPrefix("homeserver")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	return cfg, nil
}

// ParseGeoLocation splits a "lat,lng" string.
func ParseGeoLocation(geoLocation string) (float64, float64, error) {
	latLng := strings.Split(geoLocation, ",")
	if len(latLng) != 2 {
		return 0, 0, fmt.Errorf("invalid geo location (%s), expected lat,lng", geoLocation)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latLng[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("invalid latitude in geo location (%s)", geoLocation)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(latLng[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("invalid longitude in geo location (%s)", geoLocation)
	}
	return lat, lng, nil
}
