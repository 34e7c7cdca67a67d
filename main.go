package main

import "bankrates/internal/cli"

func main() {
	cli.Execute()
}
