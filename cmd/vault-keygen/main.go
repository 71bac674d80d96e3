// vault-keygen derives canonical account identifiers for owners and vaults
// from BIP-39 mnemonics.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"covault/go-backend/internal/identity"
)

func main() {
	fromStdin := flag.Bool("stdin", false, "read an existing mnemonic from stdin instead of generating one")
	passphrase := flag.String("passphrase", "", "optional BIP-39 passphrase")
	flag.Parse()

	var mnemonic string
	if *fromStdin {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("vault-keygen: read mnemonic: %v", err)
		}
		mnemonic = strings.TrimSpace(line)
	} else {
		var err error
		mnemonic, err = identity.NewMnemonic()
		if err != nil {
			log.Fatalf("vault-keygen: generate mnemonic: %v", err)
		}
	}

	keys, err := identity.FromMnemonic(mnemonic, *passphrase)
	if err != nil {
		log.Fatalf("vault-keygen: %v", err)
	}
	accountID, err := identity.AccountID(keys.SigningPublicKey)
	if err != nil {
		log.Fatalf("vault-keygen: %v", err)
	}

	if !*fromStdin {
		fmt.Printf("mnemonic:   %s\n", mnemonic)
	}
	fmt.Printf("account_id: %s\n", accountID)
}
