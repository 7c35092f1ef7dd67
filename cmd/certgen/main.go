package main

import "github.com/youruser/certapp/internal/cmd"

func main() {
	cmd.Execute()
}
