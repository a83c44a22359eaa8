package main

import "github.com/falkben/media-organizer/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
