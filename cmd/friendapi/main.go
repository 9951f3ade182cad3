package main

import "github.com/mcoot/friendapi/internal/cli"

func main() {
	cli.Execute()
}
