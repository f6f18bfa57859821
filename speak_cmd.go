package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speakmcp/speakmcp/tts"
)

var (
	speakBackend string
	speakSpeaker string
	speakSpeed   float64

	speakCmd = &cobra.Command{
		Use:     "speak TEXT",
		Short:   "Speak text once and exit",
		Long:    paragraph(fmt.Sprintf("\n%s a line of text through the dispatcher without starting the MCP server. Handy for checking engine and speaker configuration.", keyword("Speak"))),
		Example: paragraph("speak-mcp speak \"hello\"\nspeak-mcp speak --backend voicevox --speaker 1 \"こんにちは\""),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dispatcher, _, err := buildDispatcher()
			if err != nil {
				return err
			}

			result := dispatcher.Speak(cmd.Context(), tts.SpeakRequest{
				Text:    args[0],
				Backend: tts.Backend(speakBackend),
				Speaker: speakSpeaker,
				Speed:   speakSpeed,
			})
			if !result.Spoken() {
				return errors.New(result.Detail)
			}
			fmt.Println(result.Detail)
			return nil
		},
	}
)

func init() {
	speakCmd.Flags().StringVarP(&speakBackend, "backend", "b", "", "backend to use (say, voicevox, aivis; resolver default when empty)")
	speakCmd.Flags().StringVarP(&speakSpeaker, "speaker", "s", "", "voice or speaker id (configured default when empty)")
	speakCmd.Flags().Float64VarP(&speakSpeed, "speed", "r", 0, "speaking rate (engine default when 0)")
}
