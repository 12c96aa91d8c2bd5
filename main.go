package main

import "github.com/KaramelBytes/setlist-cli/cmd"

func main() {
	cmd.Execute()
}
