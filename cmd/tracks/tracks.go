// Package tracks prints the portfolio BGM list.
package tracks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/deskfolio/cmd/common"
	"github.com/gigurra/deskfolio/cmd/desktop/audio"
	"github.com/gigurra/deskfolio/cmd/desktop/content"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type Params struct {
	ServerURL string `short:"u" help:"Content server base URL." default:"http://localhost:8080"`
	JSON      bool   `long:"json" help:"Output as JSON"`
	Shuffled  bool   `short:"s" help:"Print a sample session listening order instead of the served order"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "tracks",
		Short:       "List the portfolio's background music",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := runTracks(cmd.Context(), params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runTracks(ctx context.Context, params *Params, out io.Writer) error {
	bundle, err := content.NewClient(params.ServerURL).FetchBundle(ctx)
	if err != nil {
		return err
	}

	tracks := lo.Map(bundle.BGM, func(t content.Track, _ int) audio.Track {
		return audio.Track{
			Title:      t.Title,
			Artists:    t.Artists,
			ArtworkURL: t.Artwork,
			MediaID:    t.MediaID,
		}
	})

	if params.Shuffled {
		// The same one-shot shuffle the desktop session performs.
		playlist := audio.NewPlaylist()
		playlist.Commit(tracks)
		tracks = playlist.Tracks()
	}

	if len(tracks) == 0 {
		fmt.Fprintln(out, "No tracks found")
		return nil
	}

	if params.JSON {
		data, err := json.MarshalIndent(tracks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(getTermWidth())

	t.AppendHeader(table.Row{"#", "Title", "Artists", "Media ID"})
	for i, track := range tracks {
		t.AppendRow(table.Row{i + 1, track.Title, strings.Join(track.Artists, ", "), track.MediaID})
	}
	t.Render()

	return nil
}

func getTermWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	if width, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && width > 0 {
		return width
	}
	return 120
}
