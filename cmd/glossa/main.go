package main

import (
	"os"

	"github.com/mkrill/glossa/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
