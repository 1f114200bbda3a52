package main

import "github.com/agentic-research/fileman/cmd"

func main() {
	cmd.Execute()
}
