package main

import "github.com/crossmaphq/crossmap/cmd"

func main() {
	cmd.Execute()
}
