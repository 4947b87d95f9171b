package main

import "weaponcam/internal/cli"

func main() {
	cli.Execute()
}
