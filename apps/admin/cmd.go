package main

import (
	"bufio"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/cmabris/erasmus25/core/call"
	"github.com/cmabris/erasmus25/core/catalog"
	"github.com/cmabris/erasmus25/core/content"
	"github.com/cmabris/erasmus25/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	readLineFunc     = readLine          // mockable

	errHelp = errors.New("help provided")
)

func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

type commandLine struct {
	db         *sql.DB
	usrRepo    user.Repository
	usrSvc     *user.Service
	catalogSvc *catalog.Service
	callSvc    *call.Service
	contentSvc *content.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - run DB migrations (goose commands)")
	fmt.Println("  createsuperuser [-email EMAIL] - create a super-admin account (email prompted when omitted)")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  seed - seed the system roles and demo portal data")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createSuperuserCmd := flag.NewFlagSet("createsuperuser", flag.ExitOnError)
	createSuperuserEmail := createSuperuserCmd.String("email", "", "The super-admin's email. A password will be generated and printed once.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "createsuperuser":
		if err := createSuperuserCmd.Parse(args[2:]); err != nil {
			return err
		}
		email := *createSuperuserEmail
		if email == "" {
			fmt.Print("Email:")
			var err error
			if email, err = readLineFunc(); err != nil {
				return err
			}
		}
		if email == "" {
			createSuperuserCmd.Usage()
			return errHelp
		}
		return cli.createSuperuser(email)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, string(pwd))
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}
