package main

import "github.com/mcoot/domonhunt/internal/cli"

func main() {
	cli.Execute()
}
