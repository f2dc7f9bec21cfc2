package main

import "endlesshmon/cmd"

func main() {
	cmd.Execute()
}
