package main

import "github.com/Zachkp/folio/cmd"

func main() {
	cmd.Execute()
}
