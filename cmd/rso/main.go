package main

import "github.com/discover-rso/rso/internal/cli"

func main() {
	cli.Execute()
}
