package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iabetor/tts-mcp/internal/audio"
	"github.com/iabetor/tts-mcp/internal/speech"
)

var (
	sayVoice      string
	saySpeed      float64
	sayDistortion bool
	sayOutput     string
)

var sayCmd = &cobra.Command{
	Use:   "say <text...>",
	Short: "Speak text once without starting the MCP server",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSay,
}

func init() {
	sayCmd.Flags().StringVar(&sayVoice, "voice", "", "音色 ID（默认取配置）")
	sayCmd.Flags().Float64Var(&saySpeed, "speed", 0, "语速倍率 0.5-2.0（默认取配置）")
	sayCmd.Flags().BoolVar(&sayDistortion, "distortion", false, "启用机器人失真效果")
	sayCmd.Flags().StringVarP(&sayOutput, "output", "o", "", "写入 WAV 文件而不播放")
}

func runSay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := validateBackend(cfg.Playback); err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	req := speech.Request{
		Text:       strings.Join(args, " "),
		Distortion: sayDistortion,
	}
	if cmd.Flags().Changed("voice") {
		req.Voice = &sayVoice
	}
	if cmd.Flags().Changed("speed") {
		req.Speed = &saySpeed
	}

	if sayOutput == "" {
		res, err := a.manager.Speak(cmd.Context(), req)
		if err != nil {
			return errors.New(res.Message)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	}

	res, buf, err := a.manager.Generate(cmd.Context(), req)
	if err != nil {
		return errors.New(res.Message)
	}
	if err := audio.WriteWAVFile(sayOutput, buf); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%.2fs)\n", res.Message, sayOutput, res.Duration.Seconds())
	return nil
}
