package main

import "github.com/replaybrowser/replaybrowser/internal/cli"

func main() {
	cli.Execute()
}
