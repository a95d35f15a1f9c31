// Package config loads the rf433-bridge configuration from a YAML file,
// compiled-in defaults and RF433_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/rf433/internal/hideki"
	"github.com/sweeney/rf433/internal/newremote"
	"github.com/sweeney/rf433/internal/rcswitch"
)

// Config is the daemon configuration.
type Config struct {
	GPIO      GPIOConfig      `yaml:"gpio"`
	NewRemote NewRemoteConfig `yaml:"newremote"`
	Hideki    HidekiConfig    `yaml:"hideki"`
	RcSwitch  RcSwitchConfig  `yaml:"rcswitch"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	HTTP      HTTPConfig      `yaml:"http"`

	// Heartbeat is the interval of HEARTBEAT system events; 0 disables them.
	Heartbeat time.Duration `yaml:"heartbeat"`
	// Debounce suppresses a code or reading identical to the previous one
	// seen within this window.
	Debounce time.Duration `yaml:"debounce"`
}

// GPIOConfig selects the receiver and transmitter lines.
type GPIOConfig struct {
	Chip       string `yaml:"chip"`
	RXPin      int    `yaml:"rx_pin"`
	TXPin      int    `yaml:"tx_pin"`
	EdgeBuffer int    `yaml:"edge_buffer"`
}

// NewRemoteConfig holds NewRemoteSwitch receiver and transmitter timing.
type NewRemoteConfig struct {
	MinRepeats  int    `yaml:"min_repeats"`
	ShortPeriod uint32 `yaml:"short_period"`
	Period      uint32 `yaml:"period"`
	Repeats     uint   `yaml:"repeats"`
	PulseWidth  uint32 `yaml:"pulse_width"`
}

// HidekiConfig bounds the sensor receiver clock.
type HidekiConfig struct {
	PulseShort uint32 `yaml:"pulse_short"`
	PulseLong  uint32 `yaml:"pulse_long"`
}

// RcSwitchConfig holds the default fixed-code protocol.
type RcSwitchConfig struct {
	Protocol int `yaml:"protocol"`
	Repeats  int `yaml:"repeats"`
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	BufferSize int    `yaml:"buffer_size"`
	// WSBroker is the websocket URL for the live status page; empty disables
	// it and "=broker" derives it from Broker.
	WSBroker string `yaml:"ws_broker"`
}

// HTTPConfig configures the status server; an empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		GPIO: GPIOConfig{
			Chip:       "gpiochip0",
			RXPin:      27,
			TXPin:      17,
			EdgeBuffer: 4096,
		},
		NewRemote: NewRemoteConfig{
			MinRepeats:  newremote.DefaultMinRepeats,
			ShortPeriod: newremote.DefaultShortPeriod,
			Period:      newremote.DefaultPeriod,
			Repeats:     newremote.DefaultRepeats,
			PulseWidth:  newremote.DefaultPulseWidth,
		},
		Hideki: HidekiConfig{
			PulseShort: hideki.DefaultPulseShort,
			PulseLong:  hideki.DefaultPulseLong,
		},
		RcSwitch: RcSwitchConfig{
			Protocol: rcswitch.DefaultProtocol,
			Repeats:  rcswitch.DefaultRepeats,
		},
		MQTT: MQTTConfig{
			Broker:     "tcp://192.168.1.200:1883",
			ClientID:   "rf433-bridge",
			BufferSize: 1000,
			WSBroker:   "=broker",
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
		Heartbeat: 15 * time.Minute,
		Debounce:  time.Second,
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Environment variables overriding the file.
const (
	EnvBroker    = "RF433_MQTT_BROKER"
	EnvHTTPAddr  = "RF433_HTTP_ADDR"
	EnvChip      = "RF433_GPIO_CHIP"
	EnvRXPin     = "RF433_GPIO_RX_PIN"
	EnvTXPin     = "RF433_GPIO_TX_PIN"
	EnvHeartbeat = "RF433_HEARTBEAT"
)

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvBroker); v != "" {
		cfg.MQTT.Broker = v
	}
	if v, ok := os.LookupEnv(EnvHTTPAddr); ok {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv(EnvChip); v != "" {
		cfg.GPIO.Chip = v
	}
	if v := os.Getenv(EnvRXPin); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRXPin, err)
		}
		cfg.GPIO.RXPin = n
	}
	if v := os.Getenv(EnvTXPin); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTXPin, err)
		}
		cfg.GPIO.TXPin = n
	}
	if v := os.Getenv(EnvHeartbeat); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeartbeat, err)
		}
		cfg.Heartbeat = d
	}
	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.GPIO.Chip == "" {
		errs = append(errs, "gpio.chip is required")
	}
	if c.GPIO.RXPin < 0 {
		errs = append(errs, "gpio.rx_pin must not be negative")
	}
	if c.GPIO.TXPin < 0 {
		errs = append(errs, "gpio.tx_pin must not be negative")
	}
	if c.GPIO.RXPin == c.GPIO.TXPin {
		errs = append(errs, "gpio.rx_pin and gpio.tx_pin must differ")
	}
	if c.GPIO.EdgeBuffer < 1 {
		errs = append(errs, "gpio.edge_buffer must be positive")
	}

	if c.NewRemote.MinRepeats < 1 {
		errs = append(errs, "newremote.min_repeats must be at least 1")
	}
	if c.NewRemote.Repeats < 1 || c.NewRemote.Repeats > 8 {
		errs = append(errs, "newremote.repeats must be between 1 and 8")
	}
	if c.NewRemote.Period == 0 || c.NewRemote.ShortPeriod == 0 || c.NewRemote.PulseWidth == 0 {
		errs = append(errs, "newremote timings must be positive")
	}

	if c.Hideki.PulseShort == 0 || c.Hideki.PulseShort >= c.Hideki.PulseLong {
		errs = append(errs, "hideki.pulse_short must be positive and below hideki.pulse_long")
	}

	if _, err := rcswitch.ProtocolByID(c.RcSwitch.Protocol); err != nil {
		errs = append(errs, "rcswitch.protocol must be between 1 and 6")
	}
	if c.RcSwitch.Repeats < 1 {
		errs = append(errs, "rcswitch.repeats must be at least 1")
	}

	if c.MQTT.Broker == "" {
		errs = append(errs, "mqtt.broker is required")
	}
	if c.MQTT.ClientID == "" {
		errs = append(errs, "mqtt.client_id is required")
	}
	if c.MQTT.BufferSize < 1 {
		errs = append(errs, "mqtt.buffer_size must be positive")
	}

	if c.Heartbeat < 0 {
		errs = append(errs, "heartbeat must not be negative")
	}
	if c.Debounce < 0 {
		errs = append(errs, "debounce must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
