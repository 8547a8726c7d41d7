package main

import "github.com/siphor/siphor/internal/cli"

func main() {
	cli.Execute()
}
