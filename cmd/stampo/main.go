package main

import (
	"github.com/MeKo-Tech/stampo/cmd/stampo/cmd"
)

func main() {
	cmd.Execute()
}
