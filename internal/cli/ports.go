package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/embertools/ember/internal/device"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports and flag likely dev boards",
	Long: `List attached serial ports. Ports behind the USB-UART bridges common
on ESP32-class boards (CP210x, CH340, FTDI) are flagged as likely
devices; run and tui pick the first of these when --port is not given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := device.ListPorts()
		if err != nil {
			return fmt.Errorf("list ports: %w", err)
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}

		for _, p := range ports {
			line := p.Name
			if p.IsUSB {
				line += fmt.Sprintf("  [%s:%s]", p.VID, p.PID)
			}
			if p.LikelyDevice {
				line += "  " + passText.Render("● device")
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
