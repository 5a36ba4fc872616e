package main

import "github.com/postcode-matcher/cmd"

var Version = "development"

func main() {
	cmd.Execute(Version)
}
