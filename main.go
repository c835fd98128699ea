package main

import (
	"log"

	"github.com/yskale/dug/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
