package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iabetor/tts-mcp/internal/tools"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List available voices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tools.FormatVoices(cfg.Speech.DefaultVoice))
		return nil
	},
}
