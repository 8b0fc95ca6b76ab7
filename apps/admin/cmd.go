package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/notification"
	"github.com/trezcool/lopay/core/school"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	accountRepo account.Repository
	schoolRepo  school.Repository
	notifRepo   notification.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  resetpassword -email EMAIL - reset an account's password")
	fmt.Println("  addowner -name NAME -email EMAIL - create or promote the platform owner account")
	fmt.Println("  broadcast -title TITLE -message MESSAGE - announce to every account")
	fmt.Println("  seed - load the demo schools and accounts")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	addOwnerCmd := flag.NewFlagSet("addowner", flag.ExitOnError)
	addOwnerName := addOwnerCmd.String("name", "", "The owner's display name.")
	addOwnerEmail := addOwnerCmd.String("email", "", "The owner's email. The password will be prompted next.")

	broadcastCmd := flag.NewFlagSet("broadcast", flag.ExitOnError)
	broadcastTitle := broadcastCmd.String("title", "", "The announcement title.")
	broadcastMessage := broadcastCmd.String("message", "", "The announcement body.")

	switch args[1] {
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "addowner":
		if err := addOwnerCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addOwnerName == "" || *addOwnerEmail == "" {
			addOwnerCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addOwnerCmd.Usage()
			return errHelp
		}
		return cli.addOwner(*addOwnerName, *addOwnerEmail, pwd)

	case "broadcast":
		if err := broadcastCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *broadcastTitle == "" || *broadcastMessage == "" {
			broadcastCmd.Usage()
			return errHelp
		}
		return cli.broadcast(*broadcastTitle, *broadcastMessage)

	case "seed":
		return cli.seed()

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
