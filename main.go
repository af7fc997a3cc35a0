package main

import "github.com/hmans/todograph/cmd"

func main() {
	cmd.Execute()
}
