package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sweeney/rf433/internal/gpio"
	"github.com/sweeney/rf433/internal/rf"
)

var captureShort uint32

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Print raw pulse captures of unknown remotes",
	Long: `Listen on the receiver line and print every burst of pulses between one
and three unit pulses long that follows a sync gap. Useful for identifying
remotes that none of the decoders understand.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		src, err := gpio.NewRealEdgeSource(cfg.GPIO.Chip, cfg.GPIO.RXPin, cfg.GPIO.EdgeBuffer)
		if err != nil {
			return fmt.Errorf("init receiver: %w", err)
		}
		defer src.Close()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		log.Printf("capturing on %s pin %d, short=%dus", cfg.GPIO.Chip, cfg.GPIO.RXPin, captureShort)
		return capture(cmd.OutOrStdout(), src, captureShort, sigCh)
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().Uint32Var(&captureShort, "short", rf.DefaultCaptureShort, "Unit pulse in microseconds")
}

// capture prints captures from src until a signal arrives or src closes.
func capture(out io.Writer, src gpio.EdgeSource, short uint32, sig <-chan os.Signal) error {
	n := 0
	c := rf.NewCapture(short, func(durations []uint32, levels []rf.Level) {
		n++
		fmt.Fprintf(out, "capture %d: %d pulses\n", n, len(durations))
		for i, d := range durations {
			fmt.Fprintf(out, "%s %d\n", levelName(levels[i].Invert()), d)
		}
	})
	iv := rf.NewInterval(c)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, %d captures", s, n)
			return nil
		case e, ok := <-src.Edges():
			if !ok {
				return errEdgesClosed
			}
			iv.HandleEdge(e.Level, e.Tick)
		}
	}
}
