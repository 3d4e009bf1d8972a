package main

import "mindmap/cmd/mindmap/commands"

func main() {
	commands.Execute()
}
