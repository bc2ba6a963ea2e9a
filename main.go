package main

import "github.com/tuxkal/drainpipe/cmd"

func main() {
	cmd.Execute()
}
