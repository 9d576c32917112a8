package main

import (
	"os"

	"github.com/SailorOrion/NetworkManager/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
