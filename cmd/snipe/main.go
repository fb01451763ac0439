package main

import "github.com/example/snipe/cmd"

func main() {
	cmd.Execute()
}
