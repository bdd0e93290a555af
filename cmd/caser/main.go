package main

import (
	"os"
	_ "time/tzdata"

	"github.com/ItsaMeTuni/caser/internal/cli"
)

func main() {
	os.Exit(cli.GetExitCode(cli.Execute()))
}
