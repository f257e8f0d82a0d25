package main

import "github.com/shenpeifu/vtr-verilog-to-routing-sub001/cmd/cbmetrics/cmd"

func main() {
	cmd.Execute()
}
