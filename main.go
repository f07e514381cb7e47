/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spaghettifunk/anima/engine"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/testbed"
)

func main() {
	configPath := "engine.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	config, err := engine.LoadApplicationConfig(configPath)
	if err != nil {
		panic(err)
	}

	tb, err := testbed.NewTestGame(config)
	if err != nil {
		panic(err)
	}

	engine, err := engine.New(tb.Game)
	if err != nil {
		panic(err)
	}

	if err := engine.Initialize(); err != nil {
		_ = engine.Shutdown()
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		_ = engine.Shutdown()
	}()

	// interactive console when attached to a terminal
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		go func() {
			if err := engine.SystemManager().Console.Serve(os.Stdin); err != nil {
				core.LogError("console stopped: %s", err)
			}
		}()
	}

	// run engine
	if err := engine.Run(); err != nil {
		_ = engine.Shutdown()
		panic(err)
	}
	_ = engine.Shutdown()
}
