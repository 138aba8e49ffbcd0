package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/embertools/ember/internal/toolchain"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the firmware with idf.py",
	Long: `Build the firmware in the detected project directory using idf.py.
The IDF environment must already be exported, as for idf.py itself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		idf, err := idfRunner()
		if err != nil {
			return err
		}

		res, err := idf.Build(cmd.Context(), func(line string) {
			fmt.Println(line)
		})
		if err != nil {
			return fmt.Errorf("build failed (exit %d): %w", res.ExitCode, err)
		}
		fmt.Println(passText.Render(fmt.Sprintf("build ok in %s", res.Duration.Round(timeRound))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

// idfRunner resolves the project directory and checks idf.py is usable.
func idfRunner() (*toolchain.IDF, error) {
	if !toolchain.Available() {
		return nil, errors.New("idf.py not found on PATH (source the IDF export script first)")
	}
	dir := cfg.ProjectDir
	if dir == "" {
		p := toolchain.DetectProject(root)
		if p == nil {
			return nil, errors.New("no ESP-IDF project found (set project_dir in config)")
		}
		dir = p.Root
	}
	return toolchain.New(dir), nil
}
