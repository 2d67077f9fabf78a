package main

import "github.com/EO-DataHub/eodhp-echo-service/cmd"

func main() {
	cmd.Execute()
}
