package main

import "github.com/pders01/foamkit/cmd"

func main() {
	cmd.Execute()
}
