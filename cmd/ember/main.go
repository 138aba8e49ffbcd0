package main

import "github.com/embertools/ember/internal/cli"

func main() {
	cli.Execute()
}
