// Command rf433-bridge decodes 433 MHz remote controls and weather sensors
// from a receiver on a GPIO line, publishes them to MQTT, and transmits
// commands received over MQTT.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeney/rf433/internal/bridge"
	"github.com/sweeney/rf433/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "rf433-bridge",
	Short: "433 MHz RF to MQTT bridge",
	Long: `rf433-bridge receives NewRemoteSwitch (KlikAanKlikUit) remote controls and
Hideki thermo-hygro sensors on a 433 MHz receiver module, and transmits
NewRemoteSwitch, fixed-code (rc-switch) and sensor frames on a transmitter
module.

Configuration is read from --config (YAML) over compiled-in defaults, then
RF433_* environment variables. Flags of the serve command override both.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// bridgeConfig maps the decoder and encoder settings onto the bridge.
func bridgeConfig(cfg *config.Config) bridge.Config {
	return bridge.Config{
		MinRepeats:  cfg.NewRemote.MinRepeats,
		ShortPeriod: cfg.NewRemote.ShortPeriod,
		Period:      cfg.NewRemote.Period,
		Repeats:     cfg.NewRemote.Repeats,
		PulseWidth:  cfg.NewRemote.PulseWidth,
		PulseShort:  cfg.Hideki.PulseShort,
		PulseLong:   cfg.Hideki.PulseLong,
		RcProtocol:  cfg.RcSwitch.Protocol,
		RcRepeats:   cfg.RcSwitch.Repeats,
		Debounce:    cfg.Debounce,
	}
}
