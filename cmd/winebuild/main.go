package main

import "github.com/electrumsv/winebuild/internal/command"

func main() {
	command.Execute()
}
