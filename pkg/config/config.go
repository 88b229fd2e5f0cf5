// Package config loads process wiring for the growbox binaries: file
// locations, device ports and commands. Settings the user edits at runtime
// live in the database instead.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig indicates a configuration value that cannot be used
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix is the prefix of environment overrides, e.g. GROWBOX_SENSOR_PORT.
const EnvPrefix = "GROWBOX"

// Config is the process configuration shared by all binaries.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Zigbee    ZigbeeConfig    `mapstructure:"zigbee"`
	Sensor    SensorConfig    `mapstructure:"sensor"`
	Camera    CameraConfig    `mapstructure:"camera"`
	Reboot    RebootConfig    `mapstructure:"reboot"`
	Health    HealthConfig    `mapstructure:"health"`
	Control   ControlConfig   `mapstructure:"control"`
	Uploader  UploaderConfig  `mapstructure:"uploader"`
}

// DatabaseConfig locates the SQLite file. Empty means the default path.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// DashboardConfig wires the dashboard session to its data sources.
type DashboardConfig struct {
	StaticDir   string `mapstructure:"static_dir"`
	UpstreamURL string `mapstructure:"upstream_url"`
	SnapshotURL string `mapstructure:"snapshot_url"`
}

// ZigbeeConfig points at the zigbee2mqtt data directory files and its
// MQTT broker. An empty broker disables device commands.
type ZigbeeConfig struct {
	StateFile    string     `mapstructure:"state_file"`
	DatabaseFile string     `mapstructure:"database_file"`
	FridgeDevice string     `mapstructure:"fridge_device"`
	MQTT         MQTTConfig `mapstructure:"mqtt"`
}

// MQTTConfig locates the zigbee2mqtt broker.
type MQTTConfig struct {
	Broker    string        `mapstructure:"broker"`
	ClientID  string        `mapstructure:"client_id"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	BaseTopic string        `mapstructure:"base_topic"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SensorConfig configures the serial sensor board.
type SensorConfig struct {
	Port     string        `mapstructure:"port"`
	Baud     int           `mapstructure:"baud"`
	Interval time.Duration `mapstructure:"interval"`
}

// CameraConfig configures the capture relay.
type CameraConfig struct {
	Command   []string `mapstructure:"command"`
	StaticDir string   `mapstructure:"static_dir"`
}

// RebootConfig guards the reboot route. An empty command disables it.
type RebootConfig struct {
	User         string   `mapstructure:"user"`
	PasswordHash string   `mapstructure:"password_hash"`
	Command      []string `mapstructure:"command"`
}

// HealthConfig tunes the health monitor thresholds. OverheatC is the board
// (CPU) temperature limit; OverheatMargin is how far the box may exceed its
// temperature target.
type HealthConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
	FrozenLimit    int           `mapstructure:"frozen_limit"`
	OverheatC      float64       `mapstructure:"overheat_c"`
	OverheatMargin float64       `mapstructure:"overheat_margin"`
	ThermalRoot    string        `mapstructure:"thermal_root"`
}

// ControlConfig binds the climate controllers to zigbee outlets. An empty
// device leaves that controller out. The fridge uses Zigbee.FridgeDevice.
type ControlConfig struct {
	Interval         time.Duration `mapstructure:"interval"`
	Override         time.Duration `mapstructure:"override"`
	LightDevice      string        `mapstructure:"light_device"`
	HeaterDevice     string        `mapstructure:"heater_device"`
	HumidifierDevice string        `mapstructure:"humidifier_device"`
	CO2Device        string        `mapstructure:"co2_device"`
	FridgeMinOff     time.Duration `mapstructure:"fridge_min_off"`
	HeaterMinOff     time.Duration `mapstructure:"heater_min_off"`
	HumidifierMinOff time.Duration `mapstructure:"humidifier_min_off"`
	CO2Interval      time.Duration `mapstructure:"co2_interval"`
	CO2Pulse         time.Duration `mapstructure:"co2_pulse"`
}

// UploaderConfig tunes the reporting to the plant backend. The backend
// account itself is part of the runtime settings.
type UploaderConfig struct {
	DataInterval       time.Duration `mapstructure:"data_interval"`
	ImageInterval      time.Duration `mapstructure:"image_interval"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// DefaultCaptureCommand captures one MJPEG frame per second from the first
// V4L2 device and writes the stream to stdout.
var DefaultCaptureCommand = []string{
	"ffmpeg", "-f", "v4l2", "-framerate", "1", "-input_format", "mjpeg",
	"-i", "/dev/video0", "-f", "mjpeg", "-q:v", "20", "-",
}

// Default returns the configuration used when no file or env override exists.
func Default() *Config {
	return &Config{
		Dashboard: DashboardConfig{
			StaticDir:   "static",
			UpstreamURL: "http://127.0.0.1:5000",
			SnapshotURL: "http://127.0.0.1:8765/snapshot.jpg",
		},
		Zigbee: ZigbeeConfig{
			StateFile:    "/opt/zigbee2mqtt/data/state.json",
			DatabaseFile: "/opt/zigbee2mqtt/data/database.db",
			FridgeDevice: "fridge",
			MQTT: MQTTConfig{
				ClientID:  "growbox",
				BaseTopic: "zigbee2mqtt",
				Timeout:   5 * time.Second,
			},
		},
		Sensor: SensorConfig{
			Port:     "/dev/ttyUSB0",
			Baud:     115200,
			Interval: 5 * time.Second,
		},
		Camera: CameraConfig{
			Command:   DefaultCaptureCommand,
			StaticDir: "static",
		},
		Reboot: RebootConfig{
			User: "admin",
		},
		Health: HealthConfig{
			Interval:       5 * time.Second,
			StaleAfter:     120 * time.Second,
			FrozenLimit:    60,
			OverheatC:      80,
			OverheatMargin: 8,
			ThermalRoot:    "/sys/class/thermal",
		},
		Control: ControlConfig{
			Interval:         5 * time.Second,
			Override:         15 * time.Minute,
			FridgeMinOff:     time.Minute,
			HeaterMinOff:     time.Minute,
			HumidifierMinOff: 30 * time.Second,
			CO2Interval:      30 * time.Second,
			CO2Pulse:         400 * time.Millisecond,
		},
		Uploader: UploaderConfig{
			DataInterval:  60 * time.Second,
			ImageInterval: 300 * time.Second,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("dashboard.static_dir", d.Dashboard.StaticDir)
	v.SetDefault("dashboard.upstream_url", d.Dashboard.UpstreamURL)
	v.SetDefault("dashboard.snapshot_url", d.Dashboard.SnapshotURL)

	v.SetDefault("zigbee.state_file", d.Zigbee.StateFile)
	v.SetDefault("zigbee.database_file", d.Zigbee.DatabaseFile)
	v.SetDefault("zigbee.fridge_device", d.Zigbee.FridgeDevice)
	v.SetDefault("zigbee.mqtt.broker", d.Zigbee.MQTT.Broker)
	v.SetDefault("zigbee.mqtt.client_id", d.Zigbee.MQTT.ClientID)
	v.SetDefault("zigbee.mqtt.username", d.Zigbee.MQTT.Username)
	v.SetDefault("zigbee.mqtt.password", d.Zigbee.MQTT.Password)
	v.SetDefault("zigbee.mqtt.base_topic", d.Zigbee.MQTT.BaseTopic)
	v.SetDefault("zigbee.mqtt.timeout", d.Zigbee.MQTT.Timeout)

	v.SetDefault("sensor.port", d.Sensor.Port)
	v.SetDefault("sensor.baud", d.Sensor.Baud)
	v.SetDefault("sensor.interval", d.Sensor.Interval)

	v.SetDefault("camera.command", d.Camera.Command)
	v.SetDefault("camera.static_dir", d.Camera.StaticDir)

	v.SetDefault("reboot.user", d.Reboot.User)
	v.SetDefault("reboot.password_hash", d.Reboot.PasswordHash)
	v.SetDefault("reboot.command", d.Reboot.Command)

	v.SetDefault("health.interval", d.Health.Interval)
	v.SetDefault("health.stale_after", d.Health.StaleAfter)
	v.SetDefault("health.frozen_limit", d.Health.FrozenLimit)
	v.SetDefault("health.overheat_c", d.Health.OverheatC)
	v.SetDefault("health.overheat_margin", d.Health.OverheatMargin)
	v.SetDefault("health.thermal_root", d.Health.ThermalRoot)

	v.SetDefault("control.interval", d.Control.Interval)
	v.SetDefault("control.override", d.Control.Override)
	v.SetDefault("control.light_device", d.Control.LightDevice)
	v.SetDefault("control.heater_device", d.Control.HeaterDevice)
	v.SetDefault("control.humidifier_device", d.Control.HumidifierDevice)
	v.SetDefault("control.co2_device", d.Control.CO2Device)
	v.SetDefault("control.fridge_min_off", d.Control.FridgeMinOff)
	v.SetDefault("control.heater_min_off", d.Control.HeaterMinOff)
	v.SetDefault("control.humidifier_min_off", d.Control.HumidifierMinOff)
	v.SetDefault("control.co2_interval", d.Control.CO2Interval)
	v.SetDefault("control.co2_pulse", d.Control.CO2Pulse)

	v.SetDefault("uploader.data_interval", d.Uploader.DataInterval)
	v.SetDefault("uploader.image_interval", d.Uploader.ImageInterval)
	v.SetDefault("uploader.insecure_skip_verify", d.Uploader.InsecureSkipVerify)
}

// Load reads the configuration file at path (or config.yaml in ConfigDir
// when path is empty), applies GROWBOX_* environment overrides and
// validates the result. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch {
	case c.Sensor.Interval <= 0:
		return fmt.Errorf("%w: sensor.interval must be positive", ErrInvalidConfig)
	case c.Sensor.Baud <= 0:
		return fmt.Errorf("%w: sensor.baud must be positive", ErrInvalidConfig)
	case c.Health.Interval <= 0:
		return fmt.Errorf("%w: health.interval must be positive", ErrInvalidConfig)
	case c.Health.FrozenLimit <= 0:
		return fmt.Errorf("%w: health.frozen_limit must be positive", ErrInvalidConfig)
	case c.Control.Interval <= 0 || c.Control.CO2Interval <= 0:
		return fmt.Errorf("%w: control intervals must be positive", ErrInvalidConfig)
	case c.Control.Override < 0:
		return fmt.Errorf("%w: control.override must not be negative", ErrInvalidConfig)
	case c.Uploader.DataInterval <= 0 || c.Uploader.ImageInterval <= 0:
		return fmt.Errorf("%w: uploader intervals must be positive", ErrInvalidConfig)
	case len(c.Reboot.Command) > 0 && c.Reboot.PasswordHash == "":
		return fmt.Errorf("%w: reboot.command requires reboot.password_hash", ErrInvalidConfig)
	}
	return nil
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "growbox")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".growbox"
	}
	return filepath.Join(home, ".config", "growbox")
}
