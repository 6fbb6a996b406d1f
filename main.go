package main

import "github/chapool/erc20-sender/cmd"

func main() {
	cmd.Execute()
}
