// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:     "register <username>",
	Short:   "Create a new vault user",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		master, err := promptPassword("Choose a master password: ")
		if err != nil {
			return err
		}
		defer master.Zero()
		confirm, err := promptPassword("Repeat master password: ")
		if err != nil {
			return err
		}
		defer confirm.Zero()
		if string(master) != string(confirm) {
			return fmt.Errorf("passwords do not match")
		}

		svc := newVaultService()
		id, err := svc.Register(args[0], master)
		if err != nil {
			return err
		}
		fmt.Printf("Registered user %s (id %d)\n", args[0], id)
		return nil
	},
}

var passwdCmd = &cobra.Command{
	Use:     "passwd <username>",
	Short:   "Change the master password and re-encrypt all credentials",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newVaultService()
		sess, err := unlockSession(svc, args[0])
		if err != nil {
			return err
		}
		defer sess.Lock()

		oldMaster, err := promptPassword("Current master password: ")
		if err != nil {
			return err
		}
		defer oldMaster.Zero()
		newMaster, err := promptPassword("New master password: ")
		if err != nil {
			return err
		}
		defer newMaster.Zero()

		if err := svc.ChangeMasterPassword(sess, oldMaster, newMaster); err != nil {
			return err
		}
		fmt.Println("Master password changed.")
		return nil
	},
}

var deleteAccountCmd = &cobra.Command{
	Use:     "delete-account <username>",
	Short:   "Delete a user and every group, credential and attachment they own",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newVaultService()
		sess, err := unlockSession(svc, args[0])
		if err != nil {
			return err
		}
		defer sess.Lock()

		master, err := promptPassword("Confirm master password to delete the account: ")
		if err != nil {
			return err
		}
		defer master.Zero()

		if err := svc.DeleteAccount(sess, master); err != nil {
			return err
		}
		fmt.Printf("Account %s deleted.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(deleteAccountCmd)
}
