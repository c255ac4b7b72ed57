package main

import "github.com/nfrund/parley/cmd/parleyctl/cmd"

func main() {
	cmd.Execute()
}
