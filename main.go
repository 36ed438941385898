package main

import (
	"context"
	"os"

	"github.com/woliveiras/addoverlay/pkg/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
