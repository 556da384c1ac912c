package main

import "go.pilab.hu/authmodel/cmd/authmodel/cmd"

func main() {
	cmd.Execute()
}
