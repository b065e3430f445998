package main

import "github.com/everFinance/metarelay/cli/relayer/cmd"

func main() {
	cmd.Execute()
}
