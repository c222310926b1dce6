package main

import "github.com/vanpelt/trainer/internal/cmd"

func main() {
	cmd.Execute()
}
