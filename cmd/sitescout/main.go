package main

import "github.com/MeKo-Tech/sitescout/internal/cmd"

func main() {
	cmd.Execute()
}
