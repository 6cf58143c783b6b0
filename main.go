package main

import "github.com/varalys/plugpack/cmd/plugpack"

func main() { plugpack.Execute() }
