package main

import "github.com/ecodine/ecodine/cmd"

func main() {
	cmd.Execute()
}
