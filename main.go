// The main package for the bucketsync executable.
package main

import (
	"github.com/JakeFAU/bucketsync/cmd"
)

func main() {
	cmd.Execute()
}
