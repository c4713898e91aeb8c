package main

import "github.com/ridoystarlord/schemalock/cmd"

func main() {
	cmd.Execute()
}
