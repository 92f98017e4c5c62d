package main

import "github.com/kwhittier/lobbyhub/internal/cli"

func main() {
	cli.Execute()
}
