package main

import "daily-price-pipeline/internal/cli"

func main() {
	cli.Execute()
}
