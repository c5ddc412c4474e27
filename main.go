package main

import "github.com/cameronsjo/quartermaster/internal/cmd"

func main() {
	cmd.Execute()
}
