package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/sumai/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	// dev loop: re-exec when the binary is rebuilt
	if os.Getenv("SUMAI_AUTORESTART") == "1" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
