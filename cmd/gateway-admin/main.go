package main

import "github.com/asset-sharing-networks/ledgergate/internal/cli"

func main() {
	cli.Execute()
}
