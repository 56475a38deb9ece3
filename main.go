package main

import "costbook/cmd"

func main() {
	cmd.Execute()
}
