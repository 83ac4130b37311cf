package main

import "DocChat/client/docchat-cli/cmd"

func main() {
	cmd.Execute()
}
