package main

import (
	"os"

	"rtgrab/cmd"
)

func main() {
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "job", "list")
	}
	cmd.Execute()
}
