package main

import "github.com/bloodmagesoftware/skel/cmd"

func main() {
	cmd.Execute()
}
