package main

import "github.com/Dfera000/Buscador-nuevas-ediciones/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
