package main

import "github.com/investoriq/investoriq-api/gateway-service/cmd"

func main() {
	cmd.Execute()
}
