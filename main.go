package main

import "github.com/lukman83/compintel/cmd"

func main() {
	cmd.Execute()
}
