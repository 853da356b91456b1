package main

import "github.com/Yates-Labs/concierge/cmd"

func main() {
	cmd.Execute()
}
