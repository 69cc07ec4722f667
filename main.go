package main

import "github.com/agentic-research/fsbuild/cmd"

func main() {
	cmd.Execute()
}
