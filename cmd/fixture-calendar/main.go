package main

import "github.com/pfrederiksen/fixture-calendar/internal/cli"

func main() {
	cli.Execute()
}
