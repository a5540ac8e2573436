package main

import "github.com/tdvu/keyhound/internal/cli"

func main() {
	cli.Execute()
}
