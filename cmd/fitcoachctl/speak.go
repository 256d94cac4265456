package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/antoniostano/fitcoach/internal/app"
	"github.com/antoniostano/fitcoach/internal/speech"
)

func (c *cli) speakCmd() *cobra.Command {
	var text, file, out string
	cmd := &cobra.Command{
		Use:   "speak",
		Short: "Synthesize text into an audio file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read text file: %w", err)
				}
				text = string(raw)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("one of --text or --file is required")
			}

			cfg, err := c.serviceConfig()
			if err != nil {
				return err
			}
			provider, _, err := app.ResolveSpeechProvider(cfg)
			if err != nil {
				return err
			}
			svc, err := app.NewSpeechService(provider, cfg, app.Deps{})
			if err != nil {
				return err
			}
			defer svc.Close()

			var res speech.Result
			err = withRetries(cmd.Context(), c.v.GetInt("retries"), func() error {
				var err error
				res, err = svc.Synthesize(cmd.Context(), text)
				return err
			})
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(res.Audio.Data)
				return err
			}
			if err := os.WriteFile(out, res.Audio.Data, 0o644); err != nil {
				return fmt.Errorf("write audio: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %s, %d chunks, provider %s)\n",
				out, res.Audio.MediaType, humanize.Bytes(uint64(len(res.Audio.Data))), res.Chunks, provider.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "text to speak")
	cmd.Flags().StringVar(&file, "file", "", "read text from file")
	cmd.Flags().StringVarP(&out, "out", "o", "speech.wav", "output path, - for stdout")
	return cmd
}
