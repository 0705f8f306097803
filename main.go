package main

import "github.com/frahmantamala/crm-backoffice/cmd"

func main() {
	cmd.Execute()
}
