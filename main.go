package main

import "github.com/GitPaean/PRESTO/cmd"

func main() {
	cmd.Execute()
}
