package main

import "github.com/emrgen/redline/cmd"

func main() {
	cmd.Execute()
}
