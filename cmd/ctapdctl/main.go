// ctapdctl -- CLI client for ctapd's debug/introspection HTTP endpoints.
package main

import "github.com/go-ctap/ctapd/cmd/ctapdctl/commands"

func main() {
	commands.Execute()
}
