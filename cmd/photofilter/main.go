package main

import "github.com/MeKo-Tech/photofilter/internal/cmd"

func main() {
	cmd.Execute()
}
