package main

import "github.com/mcoot/leaderboard/internal/cli"

func main() {
	cli.Execute()
}
