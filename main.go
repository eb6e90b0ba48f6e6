package main

import "github.com/dzjyyds666/toonq/cmd"

func main() {
	cmd.Execute()
}
