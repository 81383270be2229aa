package main

import "github.com/emrgen/notebook/cmd"

func main() {
	cmd.Execute()
}
