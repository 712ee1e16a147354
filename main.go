package main

import "github.com/dzjyyds666/structenv/cmd"

func main() {
	cmd.Execute()
}
