// Command acm runs the AI CLI process supervisor.
package main

import (
	"os"

	"github.com/tessro/acm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
