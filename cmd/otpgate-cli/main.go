// Command otpgate-cli runs the login / registration / password reset flow
// in a terminal against an otpgate server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/client"
	"github.com/Goofygiraffe06/otpgate/internal/config"
	"github.com/Goofygiraffe06/otpgate/internal/flow"
	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/session"
	"github.com/Goofygiraffe06/otpgate/internal/timer"
	"github.com/Goofygiraffe06/otpgate/store"
	"github.com/fatih/color"
)

func main() {
	f, err := logging.InitLogger("otpgate-cli.log")
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer f.Close()
	defer logging.Sync()

	kv, err := store.OpenFileKV(config.SessionStorePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open session store: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	out := color.Output
	pub := session.NewPublisher(kv, func(u models.Identity) {
		color.New(color.FgGreen, color.Bold).Fprintf(out, "Welcome, %s (%s)\n", u.Username, u.USN)
	})

	api := client.New(config.APIURL())
	r := newREPL(os.Stdin, out, pub, api)
	ctrl := flow.New(api,
		flow.WithPublisher(pub),
		flow.WithOnClose(r.closed),
	)
	r.ctrl = ctrl

	ticker := timer.NewDriver(time.Second, ctrl.Tick)
	ticker.Run(ctx)
	defer ticker.Stop()

	logging.InfoLog("otpgate-cli started against %s", config.APIURL())
	r.run(ctx)
}
