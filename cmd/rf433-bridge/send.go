package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/rf433/internal/bridge"
	"github.com/sweeney/rf433/internal/config"
	"github.com/sweeney/rf433/internal/gpio"
	"github.com/sweeney/rf433/internal/mqtt"
	"github.com/sweeney/rf433/internal/rf"
)

// loopbackGap is the silence placed before every train replayed by
// --loopback, in microseconds.
const loopbackGap = 20000

var sendOpts struct {
	dryRun   bool
	loopback bool

	action string

	address int64
	unit    int64
	level   int64

	id       int
	group    string
	device   string
	tristate string

	channel     int64
	randomID    int64
	temperature float64
	humidity    int64
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transmit a single command",
	Long: `Encode one command and write it to the transmitter.

--dry-run prints the pulse trains instead. --loopback also feeds them to the
decoders and prints what a receiver would report.`,
}

var sendNewRemoteCmd = &cobra.Command{
	Use:   "newremote",
	Short: "Switch a NewRemoteSwitch (KlikAanKlikUit) receiver",
	Example: `  rf433-bridge send newremote --address 123456 --unit 4 --action on
  rf433-bridge send newremote --address 123456 --unit 4 --action dim --level 9`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := mqtt.CommandMessage{
			Protocol: string(bridge.ProtocolNewRemote),
			Action:   sendOpts.action,
			Unit:     sendOpts.unit,
		}
		if cmd.Flags().Changed("address") {
			m.Address = &sendOpts.address
		}
		if cmd.Flags().Changed("level") {
			m.Level = &sendOpts.level
		}
		return sendMessage(cmd.OutOrStdout(), m)
	},
}

var sendRcSwitchCmd = &cobra.Command{
	Use:   "rcswitch",
	Short: "Switch a fixed-code socket",
	Example: `  rf433-bridge send rcswitch --group 11011 --device 10000 --action on
  rf433-bridge send rcswitch --id 2 --tristate 0FF0F0FFFF0F`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendMessage(cmd.OutOrStdout(), mqtt.CommandMessage{
			Protocol: string(bridge.ProtocolRcSwitch),
			Action:   sendOpts.action,
			ID:       sendOpts.id,
			Group:    sendOpts.group,
			Device:   sendOpts.device,
			TriState: strings.ToUpper(sendOpts.tristate),
		})
	},
}

var sendThermoHygroCmd = &cobra.Command{
	Use:     "thermohygro",
	Short:   "Send a reading as a Hideki thermo-hygro sensor",
	Example: `  rf433-bridge send thermohygro --channel 2 --random-id 17 --temperature 23.5 --humidity 47`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := mqtt.CommandMessage{
			Protocol: string(bridge.ProtocolThermoHygro),
			Channel:  sendOpts.channel,
			RandomID: sendOpts.randomID,
			Humidity: sendOpts.humidity,
		}
		if cmd.Flags().Changed("temperature") {
			m.Temperature = &sendOpts.temperature
		}
		return sendMessage(cmd.OutOrStdout(), m)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.AddCommand(sendNewRemoteCmd, sendRcSwitchCmd, sendThermoHygroCmd)

	pf := sendCmd.PersistentFlags()
	pf.BoolVar(&sendOpts.dryRun, "dry-run", false, "Print the pulse trains instead of transmitting")
	pf.BoolVar(&sendOpts.loopback, "loopback", false, "Decode the pulse trains instead of transmitting")

	f := sendNewRemoteCmd.Flags()
	f.Int64Var(&sendOpts.address, "address", 0, "26-bit remote address")
	f.Int64Var(&sendOpts.unit, "unit", 0, "Unit 0..15")
	f.StringVar(&sendOpts.action, "action", "on", "on, off, group_on, group_off or dim")
	f.Int64Var(&sendOpts.level, "level", 0, "Dim level 0..15")
	sendNewRemoteCmd.MarkFlagRequired("address")

	f = sendRcSwitchCmd.Flags()
	f.IntVar(&sendOpts.id, "id", 0, "Protocol 1..6 (0 uses the configured default)")
	f.StringVar(&sendOpts.group, "group", "", "Group DIP switches, e.g. 11011")
	f.StringVar(&sendOpts.device, "device", "", "Device DIP switches, e.g. 10000")
	f.StringVar(&sendOpts.action, "action", "on", "on or off")
	f.StringVar(&sendOpts.tristate, "tristate", "", "Raw code word of 0, 1 and F")

	f = sendThermoHygroCmd.Flags()
	f.Int64Var(&sendOpts.channel, "channel", 1, "Channel 1..5")
	f.Int64Var(&sendOpts.randomID, "random-id", 0, "Random id 0..31")
	f.Float64Var(&sendOpts.temperature, "temperature", 0, "Temperature in °C")
	f.Int64Var(&sendOpts.humidity, "humidity", 0, "Relative humidity 0..99")
	sendThermoHygroCmd.MarkFlagRequired("temperature")
}

func sendMessage(out io.Writer, m mqtt.CommandMessage) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	command, err := mqtt.CommandFromMessage(m)
	if err != nil {
		return err
	}

	if sendOpts.dryRun || sendOpts.loopback {
		trains, err := encode(cfg, command)
		if err != nil {
			return err
		}
		if sendOpts.dryRun {
			printTrains(out, trains)
		}
		if sendOpts.loopback {
			for _, e := range loopback(cfg, trains) {
				fmt.Fprintln(out, describe(e))
			}
		}
		return nil
	}

	tx, err := gpio.NewRealPulseWriter(cfg.GPIO.Chip, cfg.GPIO.TXPin)
	if err != nil {
		return fmt.Errorf("init transmitter: %w", err)
	}
	defer tx.Close()

	b := bridge.New(bridgeConfig(cfg), time.Now())
	if err := b.Execute(command, tx); err != nil {
		return err
	}
	fmt.Fprintf(out, "sent %s (%d trains)\n", command, b.Counts().Transmitted)
	return nil
}

// recordingWriter is a PulseWriter that keeps the trains.
type recordingWriter struct {
	rf.Recorder
}

func (w *recordingWriter) WritePulses(start rf.Level, durations []uint32) error {
	w.Sink(start, durations)
	return nil
}

// encode returns the trains a transmission of command would write.
func encode(cfg *config.Config, command bridge.Command) ([]rf.PulseTrain, error) {
	w := &recordingWriter{}
	if err := bridge.New(bridgeConfig(cfg), time.Now()).Execute(command, w); err != nil {
		return nil, err
	}
	return w.Trains, nil
}

// loopback decodes trains with a fresh bridge, each after loopbackGap of
// silence.
func loopback(cfg *config.Config, trains []rf.PulseTrain) []bridge.Event {
	now := time.Now()
	b := bridge.New(bridgeConfig(cfg), now)
	var events []bridge.Event
	var tick uint32
	for _, tr := range trains {
		var ev []bridge.Event
		ev, tick = b.HandleTrain(tick+loopbackGap, tr, now)
		events = append(events, ev...)
	}
	return events
}

func printTrains(out io.Writer, trains []rf.PulseTrain) {
	for i, tr := range trains {
		fmt.Fprintf(out, "train %d: start=%s pulses=%d total=%dus\n", i, levelName(tr.StartLevel), tr.Len(), tr.Total())
		var sb strings.Builder
		for j, d := range tr.Durations {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d", d)
		}
		fmt.Fprintln(out, sb.String())
	}
}

func levelName(l rf.Level) string {
	if l == rf.High {
		return "high"
	}
	return "low"
}

// describe renders an event for logs and terminal output.
func describe(e bridge.Event) string {
	switch e.Type {
	case bridge.EventRemote:
		return fmt.Sprintf("%s %s", e.Type, e.Remote)
	case bridge.EventSensor:
		return fmt.Sprintf("%s %s", e.Type, e.Reading)
	default:
		return fmt.Sprintf("%s % x", e.Type, e.Frame)
	}
}
