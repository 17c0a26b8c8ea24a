package main

import (
	"github.com/ketohub/crawler/cmd"
)

func main() {
	cmd.Execute()
}
