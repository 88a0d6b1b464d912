package main

import "github.com/LeJamon/goEscrowd/internal/cli"

func main() {
	cli.Execute()
}
