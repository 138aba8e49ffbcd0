package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flashCmd = &cobra.Command{
	Use:   "flash",
	Short: "Build and flash the firmware with idf.py",
	Long: `Build and flash the firmware to the device. Uses the configured or
auto-detected port; idf.py falls back to its own detection when no
port is known.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		idf, err := idfRunner()
		if err != nil {
			return err
		}

		res, err := idf.Flash(cmd.Context(), cfg.Port, func(line string) {
			fmt.Println(line)
		})
		if err != nil {
			return fmt.Errorf("flash failed (exit %d): %w", res.ExitCode, err)
		}
		fmt.Println(passText.Render(fmt.Sprintf("flash ok in %s", res.Duration.Round(timeRound))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flashCmd)
}
