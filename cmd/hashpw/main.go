// Command hashpw prints a bcrypt hash for use in the CREDENTIALS_FILE users table.
//
//	hashpw -user admin -password admin123
//	echo -n admin123 | hashpw -user admin
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	user := flag.String("user", "", "username to print alongside the hash")
	password := flag.String("password", "", "password to hash (read from stdin when empty)")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	pw := *password
	if pw == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("read password from stdin: %v", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}
	pw = strings.TrimSpace(pw)
	if pw == "" {
		log.Fatalf("password is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pw), *cost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	if *user == "" {
		fmt.Println(string(hash))
		return
	}
	// YAML snippet for the users table.
	fmt.Printf("users:\n  %q: %q\n", *user, string(hash))
}
