// This file contains a small convenience tool for manipulating player
// accounts in the configured server database.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"voxeld/internal/core"
	"voxeld/internal/core/auth"
	"voxeld/internal/core/data"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Account management tools",
}

var accountAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Registers new accounts in the database",
	Run:   AccountAddCommand,
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Deletes accounts from the database",
	Run:   AccountDeleteCommand,
}

var PermanentFlag bool

func initDB() *gorm.DB {
	// Change to the same directory as the config file so that any relative
	// paths in the config file will resolve.
	if ConfigFlag != "" {
		if err := os.Chdir(ConfigFlag); err != nil {
			fmt.Println("error changing to config directory:", err)
			os.Exit(1)
		}
	}

	var dialector gorm.Dialector
	if SqliteFlag {
		dialector = sqlite.Open("voxeld.db")
	} else {
		cfg := core.LoadConfig(ConfigFlag)
		dialector = postgres.Open(cfg.DatabaseURL())
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		fmt.Println("error connecting to database:", err.Error())
		os.Exit(1)
	}
	if err := db.AutoMigrate(&data.Account{}, &data.PlayerVitalsRecord{}); err != nil {
		fmt.Println("error migrating database:", err.Error())
		os.Exit(1)
	}
	return db
}

func AccountAddCommand(cmd *cobra.Command, args []string) {
	db := initDB()

	username, args := popArg(args, "Username")
	password, args := popArg(args, "Password")
	email, _ := popArg(args, "Email")

	// The unscoped lookup also catches soft-deleted accounts, which still
	// hold the username.
	account, err := data.FindUnscopedAccount(db, username)
	if err != nil {
		fmt.Println("error looking up account:", err)
		return
	} else if account != nil {
		if account.DeletedAt.Valid {
			fmt.Printf("account '%s' was deleted; permanently delete it before reusing the name\n", username)
		} else {
			fmt.Printf("account '%s' already exists; skipping\n", username)
		}
		return
	}

	account, err = auth.CreateAccount(db, username, password, email)
	if err != nil {
		fmt.Println("error creating account:", err)
		return
	}
	fmt.Printf("created account for '%s' (ID: %d)\n", account.Username, account.ID)
}

func AccountDeleteCommand(cmd *cobra.Command, args []string) {
	db := initDB()

	username, _ := popArg(args, "Username")

	// A permanent delete can target an account that was already soft-deleted,
	// so it needs the unscoped lookup.
	var account *data.Account
	var err error
	if PermanentFlag {
		account, err = data.FindUnscopedAccount(db, username)
	} else {
		account, err = data.FindAccountByUsername(db, username)
	}
	if err != nil {
		fmt.Println("error looking up account:", err)
		return
	} else if account == nil {
		fmt.Printf("no account named '%s'\n", username)
		return
	}

	if PermanentFlag {
		if err := data.PermanentlyDeleteAccount(db, account); err != nil {
			fmt.Println("error deleting account:", err)
			return
		}
	} else {
		if err := data.DeleteAccount(db, account); err != nil {
			fmt.Println("error deleting account:", err)
			return
		}
	}
	fmt.Println("deleted account")
}

func popArg(args []string, prompt string) (string, []string) {
	if len(args) == 1 {
		return args[0], nil
	} else if len(args) > 1 {
		return args[0], args[1:]
	}

	fmt.Printf("%s: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return scanner.Text(), args
}
