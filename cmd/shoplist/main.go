package main

import "github.com/JonMunkholm/shoplist/internal/cli"

func main() {
	cli.Execute()
}
