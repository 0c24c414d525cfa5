package main

import "github.com/brogergvhs/mangameta/cmd"

func main() {
	cmd.Execute()
}
