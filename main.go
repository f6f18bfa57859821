// Package main provides the entry point for the speak-mcp server.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/speakmcp/speakmcp/internal/audio"
	"github.com/speakmcp/speakmcp/internal/server"
	"github.com/speakmcp/speakmcp/internal/subprocess"
	"github.com/speakmcp/speakmcp/tts"
	"github.com/speakmcp/speakmcp/tts/engines"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "speak-mcp",
		Short: "Text-to-speech tools for LLM clients, over MCP",
		Long: paragraph(
			fmt.Sprintf("\nServe %s tools to an LLM client over MCP on stdio. Each tool speaks its text aloud through the OS speech command or a local VOICEVOX-compatible engine.", keyword("speak")),
		),
		SilenceErrors: false,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(*cobra.Command, []string) {
			if viper.GetBool("debug") {
				log.SetLevel(log.DebugLevel)
			}
		},
		RunE: runServer,
	}
)

// environ holds environment-variable overrides, parsed once at startup.
type environ struct {
	EngineConfig string `env:"SPEAKMCP_ENGINE_CONFIG"`
	VoicevoxURL  string `env:"SPEAKMCP_VOICEVOX_URL"`
	AivisURL     string `env:"SPEAKMCP_AIVIS_URL"`
}

func runServer(cmd *cobra.Command, _ []string) error {
	dispatcher, store, err := buildDispatcher()
	if err != nil {
		return err
	}

	if viper.GetBool("watch_config") {
		stop, err := store.Watch()
		if err != nil {
			log.Warn("Config watching disabled", "err", err)
		} else {
			defer stop()
		}
	}

	s := server.New(cmd.Context(), Version, dispatcher, store)
	log.Info("Serving MCP on stdio", "engine_config", store.Path())
	return s.Serve()
}

// buildDispatcher assembles the engines, resolver and config store
// from viper settings and environment overrides. A corrupt engine
// config file is a fatal startup error.
func buildDispatcher() (*tts.Dispatcher, *tts.ConfigStore, error) {
	var e environ
	if err := env.Parse(&e); err != nil {
		return nil, nil, fmt.Errorf("error parsing environment: %w", err)
	}

	path := e.EngineConfig
	if path == "" {
		var err error
		path, err = tts.ResolveConfigPath()
		if err != nil {
			return nil, nil, err
		}
	}
	store, err := tts.NewConfigStore(path)
	if err != nil {
		return nil, nil, err
	}

	budget := viper.GetDuration("timeout")
	runner := subprocess.NewRunner(budget)

	player, err := buildPlayer(runner)
	if err != nil {
		return nil, nil, err
	}

	voicevoxURL := e.VoicevoxURL
	if voicevoxURL == "" {
		voicevoxURL = viper.GetString("voicevox.url")
	}
	aivisURL := e.AivisURL
	if aivisURL == "" {
		aivisURL = viper.GetString("aivis.url")
	}

	resolver := tts.Resolver{Auto: tts.Backend(viper.GetString("auto_backend"))}
	dispatcher := tts.NewDispatcher(store, resolver, budget,
		engines.NewSay(viper.GetString("say.command"), runner),
		engines.NewVoicevox(voicevoxURL, player),
		engines.NewAivis(aivisURL, player),
	)
	return dispatcher, store, nil
}

// buildPlayer picks the audio playback mechanism: an external player
// command by default, or the in-process device when player is "oto".
func buildPlayer(runner *subprocess.Runner) (audio.Player, error) {
	switch viper.GetString("player") {
	case "oto":
		return audio.NewOtoPlayer(), nil
	default:
		return audio.NewCommandPlayer(viper.GetString("player_command"), runner)
	}
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("voicevox.url", engines.DefaultVoicevoxURL)
	viper.SetDefault("aivis.url", engines.DefaultAivisURL)
	viper.SetDefault("say.command", "")
	viper.SetDefault("timeout", 60*time.Second)
	viper.SetDefault("player", "command")
	viper.SetDefault("player_command", "")
	viper.SetDefault("auto_backend", "say")
	viper.SetDefault("watch_config", true)

	rootCmd.AddCommand(configCmd, manCmd, speakersCmd, speakCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "speak-mcp")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "speak-mcp")}, dirs...)
	}

	if c := os.Getenv("SPEAKMCP_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("speak-mcp")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("speakmcp")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "speak-mcp.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
