package main

import (
	"github.com/anoixa/memlane/cmd"
)

func main() {
	cmd.Execute()
}
