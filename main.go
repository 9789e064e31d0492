package main

import "github.com/ridoystarlord/fbmeta/cmd"

func main() {
	cmd.Execute()
}
