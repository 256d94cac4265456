package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/antoniostano/fitcoach/internal/config"
	"github.com/antoniostano/fitcoach/internal/logging"
)

// cli holds per-invocation state so commands can be built more than once in
// tests without sharing a global viper.
type cli struct {
	v          *viper.Viper
	out        io.Writer
	configFile string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out}

	root := &cobra.Command{
		Use:           "fitcoachctl",
		Short:         "Generate fitness plans and coaching audio from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			return logging.Init(logging.Config{Level: c.v.GetString("log-level"), Format: "console"})
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (yaml)")
	flags.String("gemini-api-key", "", "Gemini API key")
	flags.String("speech-provider", "auto", "speech backend (auto|gemini|mock)")
	flags.String("plan-provider", "auto", "plan backend (auto|gemini|mock)")
	flags.String("voice", "", "prebuilt voice name")
	flags.Int("retries", 2, "retries for retryable upstream failures")
	flags.String("log-level", "warn", "log level")
	for _, name := range []string{"gemini-api-key", "speech-provider", "plan-provider", "voice", "retries", "log-level"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(c.speakCmd(), c.planCmd(), c.scriptCmd(), c.benchCmd())
	return root
}

func (c *cli) loadConfig() error {
	c.v.SetEnvPrefix("fitcoach")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	if c.configFile == "" {
		return nil
	}
	c.v.SetConfigFile(c.configFile)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", c.configFile, err)
	}
	return nil
}

// serviceConfig layers CLI settings over the server's environment config.
func (c *cli) serviceConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if key := strings.TrimSpace(c.v.GetString("gemini-api-key")); key != "" {
		cfg.GeminiAPIKey = key
	}
	cfg.SpeechProvider = c.v.GetString("speech-provider")
	cfg.PlanProvider = c.v.GetString("plan-provider")
	if voice := strings.TrimSpace(c.v.GetString("voice")); voice != "" {
		cfg.SpeechVoice = voice
	}
	// One-shot runs have nothing to cache and no shared quota to protect.
	cfg.SpeechCacheSize = 0
	cfg.UpstreamRequestsPerMinute = 0
	return cfg, nil
}

func main() {
	defer logging.Sync()
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
