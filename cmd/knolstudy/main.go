package main

import "github.com/conorfennell/knolstudy/internal/cli"

func main() {
	cli.Execute()
}
