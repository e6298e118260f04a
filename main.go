package main

import "sluice/cmd"

func main() {
	cmd.Execute()
}
