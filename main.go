package main

import "github.com/frahmantamala/equipment-inventory/cmd"

func main() {
	cmd.Execute()
}
