package main

import "github.com/devicelab-dev/flowdsl/pkg/cli"

func main() {
	cli.Execute()
}
