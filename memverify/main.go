// Command memverify runs verification testbenches for the auto-incrementing
// memory and reports on recorded runs.
package main

import "github.com/sarchlab/memverify/memverify/cmd"

func main() {
	cmd.Execute()
}
