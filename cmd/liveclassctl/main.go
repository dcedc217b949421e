package main

import "github.com/mcoot/liveclass/internal/cli"

func main() {
	cli.Execute()
}
