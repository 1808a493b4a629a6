// Command srtsh is an interactive shell over the srtsock facade. Every
// primitive is a command, so a session can create sockets, connect them,
// poll and inspect statistics by hand.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertbit/grumble"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/srtsock"
)

const banner = `
  ___ _ __| |_ ___| |__
 / __| '__| __/ __| '_ \
 \__ \ |  | |_\__ \ | | |
 |___/_|   \__|___/_| |_|

   SRT socket shell
   ----------------

`

// srt is the facade instance shared by all commands.
var srt *srtsock.SRT

// setupCLI creates the shell and wires facade setup and teardown.
func setupCLI() *grumble.App {
	histFile := ".srtsh_history"
	if home, err := os.UserHomeDir(); err == nil {
		histFile = filepath.Join(home, ".srtsh_history")
	}

	app := grumble.New(&grumble.Config{
		Name:        "srtsh",
		Description: "interactive SRT socket shell",
		HistoryFile: histFile,
		Flags: func(f *grumble.Flags) {
			f.String("c", "config", "", "path to a YAML options file")
			f.String("e", "engine", "", "engine to use (overrides the config file)")
		},
	})

	app.SetPrintASCIILogo(func(a *grumble.App) {
		fmt.Print(banner)
	})

	app.OnInit(func(a *grumble.App, flags grumble.FlagMap) error {
		opts := srtsock.NewOptions()
		if path := flags.String("config"); path != "" {
			loaded, err := srtsock.LoadOptions(path)
			if err != nil {
				return fmt.Errorf("failed to load options: %w", err)
			}
			opts = loaded
		}
		if name := flags.String("engine"); name != "" {
			opts.Engine = name
		}

		var err error
		srt, err = srtsock.New(opts)
		if err != nil {
			return fmt.Errorf("failed to start engine %q: %w", opts.Engine, err)
		}
		logrus.WithFields(logrus.Fields{
			"function": "OnInit",
			"package":  "main",
			"engine":   opts.Engine,
		}).Info("Engine started")
		return nil
	})

	app.OnClose(func() error {
		if srt == nil {
			return nil
		}
		return srt.Dispose()
	})

	return app
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})

	app := setupCLI()
	AddCommands(app)

	if err := app.Run(); err != nil {
		logrus.Fatal(err)
	}
}
