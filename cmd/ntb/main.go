package main

import "os"

func main() {
	os.Exit(Execute(os.Args[0], os.Args[1:], os.Stderr))
}
