package main

import "github.com/uptc/quejas-notifier/cmd"

func main() {
	cmd.Execute()
}
