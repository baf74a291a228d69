package main

import "github.com/focustrack/focustrack/cmd/focustrack/commands"

func main() {
	commands.Execute()
}
