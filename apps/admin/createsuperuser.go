package main

import (
	"context"
	"fmt"
)

// createSuperuser creates an active super-admin account. The generated
// password is printed exactly once and never stored in plain text.
func (cli *commandLine) createSuperuser(email string) error {
	usr, pwd, err := cli.usrSvc.CreateSuperAdmin(context.Background(), email)
	if err != nil {
		return err
	}
	fmt.Printf("Super-admin %s created.\n", usr.Email)
	fmt.Printf("Generated password: %s\n", pwd)
	fmt.Println("Store it now; it will not be shown again.")
	return nil
}
