package main

import "github.com/frahmantamala/account-hub/cmd"

func main() {
	cmd.Execute()
}
