package main

import "billing-backend/cmd"

func main() {
	cmd.Execute()
}
