package main

import (
	"os"

	"go-chroot/cmd"
)

var Version = "dev"

func main() {
	cmd.Version = Version
	os.Exit(cmd.Execute())
}
