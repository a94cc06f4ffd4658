// Command linq is a small command line companion for the Linq Partner API:
// it lists chats and messages, receives and verifies webhooks, and sends
// signed test deliveries.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
