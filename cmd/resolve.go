package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sluice/internal/media"
	"sluice/internal/orchestrate"
	"sluice/internal/registry"
	"sluice/internal/subtitle"
	"sluice/internal/ui"
)

var (
	flagType      string
	flagTitle     string
	flagImdb      string
	flagYear      string
	flagSeason    int
	flagSeasonID  string
	flagEpisode   int
	flagEpisodeID string
	flagHint      string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <external-id>",
	Short: "Resolve one title into a playable stream URL",
	Args:  cobra.ExactArgs(1),
	RunE:  resolveRun,
}

func init() {
	resolveCmd.Flags().StringVar(&flagType, "type", "movie", "Media type: movie | show")
	resolveCmd.Flags().StringVar(&flagTitle, "title", "", "Title, for display and logging")
	resolveCmd.Flags().StringVar(&flagImdb, "imdb", "", "IMDB identifier, preferred by some providers")
	resolveCmd.Flags().StringVar(&flagYear, "year", "", "Release year")
	resolveCmd.Flags().IntVar(&flagSeason, "season", 0, "Season number (shows)")
	resolveCmd.Flags().StringVar(&flagSeasonID, "season-id", "", "Provider season identifier (shows)")
	resolveCmd.Flags().IntVar(&flagEpisode, "episode", 0, "Episode number (shows)")
	resolveCmd.Flags().StringVar(&flagEpisodeID, "episode-id", "", "Provider episode identifier (shows)")
	resolveCmd.Flags().StringVar(&flagHint, "hint", "", "Routing hint, e.g. anime")
}

func resolveRun(cmd *cobra.Command, args []string) error {
	desc := media.Descriptor{
		Type:       media.ParseType(flagType),
		Title:      flagTitle,
		ExternalID: args[0],
		ImdbID:     flagImdb,
		Year:       flagYear,
	}
	if desc.IsShow() {
		if flagSeason == 0 || flagEpisode == 0 {
			return fmt.Errorf("show resolution requires --season and --episode")
		}
		desc.Season = &media.Season{Number: flagSeason, ExternalID: flagSeasonID}
		desc.Episode = &media.Episode{Number: flagEpisode, ExternalID: flagEpisodeID}
	}
	hint := registry.ParseHint(flagHint)

	interactive := !flagJSON && term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		return resolveInteractive(cmd.Context(), desc, hint)
	}

	fetcher := newFetcher()
	stream, err := newOrchestrator(fetcher, nil).Resolve(cmd.Context(), desc, hint)
	if err != nil {
		return err
	}
	return printStream(stream)
}

// resolveInteractive runs the orchestrator behind a progress view, then
// prints the winning stream the same way the plain path does.
func resolveInteractive(ctx context.Context, desc media.Descriptor, hint registry.Hint) error {
	title := desc.Title
	if title == "" {
		title = desc.Key()
	}
	model := ui.New(title)
	p := tea.NewProgram(model, tea.WithOutput(os.Stderr))

	go func() {
		fetcher := newFetcher()
		o := newOrchestrator(fetcher, func(e orchestrate.Event) {
			p.Send(ui.EventMsg(e))
		})
		stream, err := o.Resolve(ctx, desc, hint)
		p.Send(ui.DoneMsg{Stream: stream, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running progress view: %w", err)
	}
	if model.Err() != nil {
		return model.Err()
	}
	return printStream(model.Stream())
}

type subtitleOutput struct {
	Language string `json:"language"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

type streamOutput struct {
	URL       string            `json:"url"`
	Format    string            `json:"format"`
	Qualities map[string]string `json:"qualities,omitempty"`
	Headers   map[string]string `json:"headers"`
	Subtitles []subtitleOutput  `json:"subtitles,omitempty"`
	Provider  string            `json:"provider"`
}

// printStream writes the stream as JSON to stdout, applying the configured
// quality and subtitle language preferences.
func printStream(stream *media.ResolvedStream) error {
	if q := stream.Qualities[cfg.Quality]; q != "" {
		stream.URL = q
	}

	out := streamOutput{
		URL:       stream.URL,
		Format:    stream.Format.String(),
		Qualities: stream.Qualities,
		Headers:   stream.Headers,
		Provider:  stream.ProviderID,
	}
	for _, sub := range subtitle.Prioritize(stream.Subtitles, cfg.SubsLanguage) {
		out.Subtitles = append(out.Subtitles, subtitleOutput{
			Language: sub.Language,
			Label:    sub.Label,
			URL:      sub.URL,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
