// Command vapidgen prints a fresh VAPID key pair for web push setup.
package main

import (
	"fmt"
	"os"

	"github.com/kjelstad/chorebank/internal/push"
)

func main() {
	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate keys: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("CHOREBANK_VAPID_PUBLIC_KEY=%s\n", pub)
	fmt.Printf("CHOREBANK_VAPID_PRIVATE_KEY=%s\n", priv)
}
