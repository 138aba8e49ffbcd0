package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Tail the device's serial output",
	Long: `Tail the device's decoded log output. Uses the same stream path as
run, so what you see here is exactly what assertions match against.
Press Ctrl+C to stop.

Examples:
  ember monitor
  ember monitor -p /dev/ttyUSB0 -b 115200`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := buildController()
		if err != nil {
			return err
		}
		sess, err := ctrl.Open()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		ctx, cancel := signalContext()
		defer cancel()

		fmt.Fprintf(os.Stderr, "Monitoring %s, press Ctrl+C to stop\n\n", sess.PortName)

		buf := sess.Buffer()
		printed := buf.End()
		for {
			if ctx.Err() != nil {
				fmt.Fprintln(os.Stderr, "\nStopped")
				return nil
			}
			if err := sess.Pump(); err != nil {
				return fmt.Errorf("device disconnected: %w", err)
			}

			if end := buf.End(); end > printed {
				text := buf.String()
				from := printed - buf.Start()
				if from < 0 {
					from = 0 // eviction outran the display, show what remains
				}
				os.Stdout.WriteString(text[from:])
				printed = end
			}

			select {
			case <-ctx.Done():
			case <-time.After(20 * time.Millisecond):
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
