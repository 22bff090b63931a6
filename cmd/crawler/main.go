// Package main is the entry point for the crawler service binary.
package main

import "github.com/littleweb/crawler/cmd"

func main() {
	cmd.Execute()
}
