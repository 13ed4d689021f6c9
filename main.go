package main

import (
	"github.com/oobauth/oobauth/cmd"
)

func main() {
	cmd.Execute()
}
