package main

import "github.com/skillswap/skillswap/cmd"

func main() {
	cmd.Execute()
}
