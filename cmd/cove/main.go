package main

import "cove/cmd/cove/root"

func main() {
	root.Execute()
}
