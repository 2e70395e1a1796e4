package main

import (
	"github.com/mh131105/TP1-BD/commands"
)

func main() {
	commands.Execute()
}
