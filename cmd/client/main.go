package main

import "hydrosync/cmd/client/cmd"

func main() {
	cmd.Execute()
}
