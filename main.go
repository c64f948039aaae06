// Package main points at the cachesim command, which lives in ./cmd/cachesim.
package main

import "fmt"

func main() {
	fmt.Println("cachesim - Set-Associative Cache Simulator")
	fmt.Println("Run 'go run ./cmd/cachesim --help' for usage.")
}
