package main

import (
	"github.com/uptask/uptask-server/cmd"
)

func main() {
	cmd.Execute()
}
