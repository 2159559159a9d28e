package main

import (
	"fmt"
	"io"
)

const banner = `
 ____  ___ ____ _____ ___ ____  _____
|  _ \|_ _|  _ \_   _|_ _|  _ \| ____|
| |_) || || |_) || |  | || | | |  _|
|  _ < | ||  __/ | |  | || |_| | |___
|_| \_\___|_|    |_| |___|____/|_____|
`

func printBanner(w io.Writer) {
	fmt.Fprint(w, banner, "\n")
}
