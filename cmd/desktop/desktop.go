// Package desktop implements the TUI client: a welcome screen gating a
// window-managed workspace with a persistent background music session.
package desktop

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/deskfolio/cmd/common"
	"github.com/gigurra/deskfolio/cmd/desktop/audio"
	"github.com/gigurra/deskfolio/cmd/desktop/viewswitch"
	"github.com/gigurra/deskfolio/cmd/desktop/wm"
	"github.com/spf13/cobra"
)

type Params struct {
	ServerURL string `short:"u" help:"Content server base URL." default:"http://localhost:8080"`
	SiteURL   string `optional:"true" help:"Public site URL encoded in the share QR code (defaults to the server URL)."`
	Muted     bool   `short:"m" help:"Skip the entry choice and start muted." default:"false"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "desktop",
		Short:       "Open the portfolio desktop",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := runDesktop(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runDesktop(params *Params) error {
	if params.SiteURL == "" {
		params.SiteURL = params.ServerURL
	}

	m := newModel(params)

	var player *audio.Player
	if audio.PlaybackAvailable {
		player = audio.NewPlayer(mediaResolver(params.ServerURL), audio.Events{
			OnReady:       m.playback.HandleReady,
			OnStateChange: m.playback.HandleStateChange,
		})
		if err := player.Open(); err != nil {
			// The desktop still works, just silently.
			slog.Warn("audio device unavailable", "error", err)
			player = nil
		}
	}

	m.sampler.Start()
	defer m.sampler.Stop()
	defer m.switcher.Stop()
	if player != nil {
		defer player.Close()
	}

	p := tea.NewProgram(m, tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running desktop: %w", err)
	}
	return nil
}

// mediaResolver fetches MP3 bytes for a media id from the content server.
func mediaResolver(baseURL string) audio.MediaResolver {
	client := &http.Client{Timeout: 60 * time.Second}
	return func(mediaID string) ([]byte, error) {
		resp, err := client.Get(fmt.Sprintf("%s/media/%s.mp3", baseURL, mediaID))
		if err != nil {
			return nil, fmt.Errorf("fetching media %s: %w", mediaID, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("server returned %s for media %s", resp.Status, mediaID)
		}
		return io.ReadAll(resp.Body)
	}
}

// tuiPolicy is the cell-scaled placement policy. The viewport is filled in
// from the terminal size once known.
func tuiPolicy() wm.Policy {
	return wm.Policy{
		AnchorX:       4,
		AnchorY:       2,
		Step:          3,
		AssumedWidth:  48,
		AssumedHeight: 16,
	}
}

// ids of the fixed, non-work windows.
const (
	windowBasicInfo  = "basic-info"
	windowInspiredBy = "inspired-by"
	windowShare      = "share"
	windowWarning    = "warning"
)

// newSwitcher builds the welcome gate wired to the playback controls.
func newSwitcher(controls audio.Controls) *viewswitch.Switcher {
	return viewswitch.New(viewswitch.Config{
		StartPlayback: controls.Play,
	})
}
