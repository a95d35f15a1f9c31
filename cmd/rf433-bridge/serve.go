package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/rf433/internal/bridge"
	"github.com/sweeney/rf433/internal/config"
	"github.com/sweeney/rf433/internal/gpio"
	"github.com/sweeney/rf433/internal/mqtt"
	"github.com/sweeney/rf433/internal/rf"
	"github.com/sweeney/rf433/internal/status"
	"github.com/sweeney/rf433/internal/web"
)

// errEdgesClosed is returned by the loop when the edge source goes away.
var errEdgesClosed = errors.New("edge source closed")

var serveOpts struct {
	broker    string
	httpAddr  string
	wsBroker  string
	chip      string
	rxPin     int
	txPin     int
	heartbeat time.Duration
	debounce  time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge daemon",
	Long: `Decode the receiver line, publish remotes and sensor readings to MQTT,
transmit commands from the command topic, and serve the status page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyServeFlags(cmd.Flags().Changed, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	d := config.Default()
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.broker, "broker", d.MQTT.Broker, "MQTT broker address")
	f.StringVar(&serveOpts.httpAddr, "http", d.HTTP.Addr, "HTTP status address (empty to disable)")
	f.StringVar(&serveOpts.wsBroker, "ws-broker", d.MQTT.WSBroker, `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	f.StringVar(&serveOpts.chip, "chip", d.GPIO.Chip, "GPIO chip")
	f.IntVar(&serveOpts.rxPin, "rx-pin", d.GPIO.RXPin, "BCM pin number of the receiver")
	f.IntVar(&serveOpts.txPin, "tx-pin", d.GPIO.TXPin, "BCM pin number of the transmitter")
	f.DurationVar(&serveOpts.heartbeat, "heartbeat", d.Heartbeat, "Heartbeat interval (0 to disable)")
	f.DurationVar(&serveOpts.debounce, "debounce", d.Debounce, "Suppress repeats of the same code within this window")
}

// applyServeFlags copies the flags set on the command line over cfg.
func applyServeFlags(changed func(name string) bool, cfg *config.Config) {
	if changed("broker") {
		cfg.MQTT.Broker = serveOpts.broker
	}
	if changed("http") {
		cfg.HTTP.Addr = serveOpts.httpAddr
	}
	if changed("ws-broker") {
		cfg.MQTT.WSBroker = serveOpts.wsBroker
	}
	if changed("chip") {
		cfg.GPIO.Chip = serveOpts.chip
	}
	if changed("rx-pin") {
		cfg.GPIO.RXPin = serveOpts.rxPin
	}
	if changed("tx-pin") {
		cfg.GPIO.TXPin = serveOpts.txPin
	}
	if changed("heartbeat") {
		cfg.Heartbeat = serveOpts.heartbeat
	}
	if changed("debounce") {
		cfg.Debounce = serveOpts.debounce
	}
}

func run(cfg *config.Config) error {
	edges, err := gpio.NewRealEdgeSource(cfg.GPIO.Chip, cfg.GPIO.RXPin, cfg.GPIO.EdgeBuffer)
	if err != nil {
		return fmt.Errorf("init receiver: %w", err)
	}
	defer edges.Close()

	tx, err := gpio.NewRealPulseWriter(cfg.GPIO.Chip, cfg.GPIO.TXPin)
	if err != nil {
		return fmt.Errorf("init transmitter: %w", err)
	}
	defer tx.Close()

	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:     cfg.MQTT.Broker,
		ClientID:   cfg.MQTT.ClientID,
		BufferSize: cfg.MQTT.BufferSize,
		Subscribe:  true,
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	wsBroker := resolveWSBroker(cfg.MQTT.WSBroker, cfg.MQTT.Broker)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Chip:        cfg.GPIO.Chip,
		RXPin:       cfg.GPIO.RXPin,
		TXPin:       cfg.GPIO.TXPin,
		DebounceMs:  cfg.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		WSBroker:    wsBroker,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: chip=%s rx=%d tx=%d broker=%s heartbeat=%v debounce=%v",
		cfg.GPIO.Chip, cfg.GPIO.RXPin, cfg.GPIO.TXPin, cfg.MQTT.Broker, cfg.Heartbeat, cfg.Debounce)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		edges:      edges,
		tx:         tx,
		pub:        publisher,
		mqttStatus: publisher,
		commands:   publisher.Commands(),
		tracker:    tracker,
		heartbeat:  cfg.Heartbeat,
		now:        time.Now,
	}
	return l.run(bridgeConfig(cfg), ticker.C, sigCh)
}

// loop owns the bridge. Everything it touches runs on one goroutine.
type loop struct {
	edges      gpio.EdgeSource
	tx         bridge.PulseWriter
	pub        mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	commands   <-chan bridge.Command
	tracker    *status.Tracker
	heartbeat  time.Duration
	now        func() time.Time

	bridge  *bridge.Bridge
	pending []bridge.Command
}

func (l *loop) run(cfg bridge.Config, tick <-chan time.Time, sig <-chan os.Signal) error {
	l.bridge = bridge.New(cfg, l.now())

	for {
		select {
		case s := <-sig:
			l.shutdown(s)
			return nil

		case e, ok := <-l.edges.Edges():
			if !ok {
				return errEdgesClosed
			}
			l.handleEdge(e)

		case cmd := <-l.commands:
			log.Printf("command: %s", cmd)
			l.pending = append(l.pending, cmd)
			l.transmitPending(false)

		case t := <-tick:
			l.transmitPending(true)

			if hbData := l.bridge.CheckHeartbeat(t, l.heartbeat); hbData != nil {
				c := hbData.Counts
				log.Printf("heartbeat: uptime=%v remote=%d sensor=%d raw=%d suppressed=%d rejected=%d tx=%d dropped=%d",
					hbData.Uptime, c.Remote, c.Sensor, c.SensorRaw, c.Suppressed, c.Rejected, c.Transmitted, l.edges.Dropped())

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if l.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						l.tracker.SetNetwork(net)
					}
					l.updateTracker()
					hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := l.pub.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			if l.tracker != nil {
				l.updateTracker()
			}
		}
	}
}

func (l *loop) handleEdge(e rf.Edge) {
	for _, event := range l.bridge.HandleEdge(e, l.now()) {
		log.Printf("event: %s", describe(event))
		if err := l.pub.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
		}
		if l.tracker != nil {
			l.tracker.Record(event)
		}
	}
}

// transmitPending sends queued commands unless a remote frame is being
// received. force sends regardless, so a command waits at most one tick.
func (l *loop) transmitPending(force bool) {
	if len(l.pending) == 0 {
		return
	}
	if !force && l.bridge.Receiving() {
		return
	}
	for _, cmd := range l.pending {
		err := l.bridge.Execute(cmd, l.tx)
		if err != nil {
			log.Printf("transmit %s: %v", cmd, err)
		}
		if l.tracker != nil {
			l.tracker.RecordCommand(cmd, l.now(), err)
		}
	}
	l.pending = l.pending[:0]
	l.drainEdges()
}

// drainEdges discards edges queued while transmitting, which are mostly our
// own signal, and restarts the duration reference at the last of them.
func (l *loop) drainEdges() {
	var last *rf.Edge
	for {
		select {
		case e, ok := <-l.edges.Edges():
			if !ok {
				return
			}
			last = &e
		default:
			if last != nil {
				l.bridge.ResetTick(last.Tick)
			}
			return
		}
	}
}

func (l *loop) updateTracker() {
	l.tracker.Update(l.bridge.Counts(), l.edges.Dropped())
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func (l *loop) shutdown(s os.Signal) {
	log.Printf("received %v, shutting down", s)
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "SHUTDOWN",
		Reason:    signalName,
		Retained:  true,
	}
	if l.tracker != nil {
		l.updateTracker()
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", signalName)
	}
	if err := l.pub.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}
