/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/abrahamjose02/Article-Feed-Api/cmd"

func main() {
	cmd.Execute()
}
