package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speakmcp/speakmcp/tts"
)

var speakersCmd = &cobra.Command{
	Use:     "speakers [backend]",
	Short:   "List the voices a backend offers",
	Long:    paragraph(fmt.Sprintf("\nList the %s a backend offers, as id and display name. Defaults to the say command; pass voicevox or aivis to query a local engine.", keyword("voices"))),
	Example: paragraph("speak-mcp speakers\nspeak-mcp speakers voicevox"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend := tts.BackendSay
		if len(args) == 1 {
			backend = tts.Backend(args[0])
			if !tts.KnownBackend(backend) || backend == tts.BackendAuto {
				return fmt.Errorf("unknown backend %q", args[0])
			}
		}

		dispatcher, _, err := buildDispatcher()
		if err != nil {
			return err
		}
		engine, ok := dispatcher.Engine(backend)
		if !ok {
			return fmt.Errorf("no engine registered for %s", backend)
		}
		lister, ok := engine.(tts.SpeakerLister)
		if !ok {
			return fmt.Errorf("%s cannot list voices", backend)
		}

		speakers, err := lister.Speakers(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range speakers {
			fmt.Printf("%s\t%s\n", s.ID, s.Name)
		}
		return nil
	},
}
