/*
Copyright © 2025 NEURAL SYMPHONY
*/
package main

import "github.com/neural-symphony/symphonyctl/cmd"

func main() {
	cmd.Execute()
}
