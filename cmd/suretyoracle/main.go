package main

import "github.com/flightsurety/suretynode/cmd/suretyoracle/commands"

func main() {
	commands.Execute()
}
