package main

import "github.com/frahmantamala/intranet-portal/cmd"

func main() {
	cmd.Execute()
}
