// Command taxiid runs the TAXII server.
package main

import "github.com/darwis-taxii/taxii-server/cmd/taxiid/cmd"

func main() {
	cmd.Execute()
}
