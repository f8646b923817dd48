package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/deskfolio/cmd/desktop"
	"github.com/gigurra/deskfolio/cmd/serve"
	"github.com/gigurra/deskfolio/cmd/tracks"
	"github.com/spf13/cobra"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "deskfolio",
		Short:   "A desktop-style portfolio in the terminal",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			desktop.Cmd(),
			serve.Cmd(),
			tracks.Cmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
