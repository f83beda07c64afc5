package main

import "supplypool/cmd"

func main() {
	cmd.Execute()
}
