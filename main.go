package main

import "github.com/theirongolddev/roomtally/cmd"

func main() {
	cmd.Execute()
}
