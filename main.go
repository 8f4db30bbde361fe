package main

import "github.com/takeshy/wallframe/cmd"

func main() {
	cmd.Execute()
}
