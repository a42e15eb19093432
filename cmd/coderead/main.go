package main

import "github.com/dpolishuk/coderead/internal/cli"

func main() {
	cli.Execute()
}
