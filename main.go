package main

import "github.com/LegacyCodeHQ/codeviz/cmd"

func main() {
	cmd.Execute()
}
