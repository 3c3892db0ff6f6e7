// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/passkeep/passkeep/internal/vault"
)

var groupUser string
var groupDescription string
var groupIcon string

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage credential groups",
}

var groupsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List your groups",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newVaultService()
		sess, err := unlockSession(svc, groupUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		groups, err := svc.ListGroups(sess)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Println("No groups.")
			return nil
		}
		for _, g := range groups {
			line := fmt.Sprintf("%4d  %s", g.ID, g.Name)
			if g.IconName != "" {
				line += fmt.Sprintf("  [%s]", g.IconName)
			}
			if g.Description != "" {
				line += "  " + g.Description
			}
			fmt.Println(line)
		}
		return nil
	},
}

var groupsAddCmd = &cobra.Command{
	Use:     "add <name>",
	Short:   "Create a group",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newVaultService()
		sess, err := unlockSession(svc, groupUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		iconID := 0
		if groupIcon != "" {
			id, err := resolveIcon(svc, sess, groupIcon)
			if err != nil {
				return err
			}
			iconID = id
		}
		id, err := svc.CreateGroup(sess, args[0], groupDescription, iconID)
		if err != nil {
			return err
		}
		fmt.Printf("Created group %s (id %d)\n", args[0], id)
		return nil
	},
}

var groupsRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Short:   "Delete a group and every credential in it",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid group id: %s", args[0])
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, groupUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		if err := svc.DeleteGroup(sess, id); err != nil {
			return err
		}
		fmt.Printf("Deleted group %d\n", id)
		return nil
	},
}

var groupsEditCmd = &cobra.Command{
	Use:     "edit <id> <name>",
	Short:   "Rename a group and update its description or icon",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid group id: %s", args[0])
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, groupUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		iconID := 0
		if groupIcon != "" {
			iconID, err = resolveIcon(svc, sess, groupIcon)
			if err != nil {
				return err
			}
		}
		if err := svc.UpdateGroup(sess, id, args[1], groupDescription, iconID); err != nil {
			return err
		}
		fmt.Printf("Updated group %d\n", id)
		return nil
	},
}

// resolveIcon maps an icon name to its id, importing the file when the
// argument is a path to an image that is not yet stored.
func resolveIcon(svc *vault.Service, sess *vault.Session, nameOrPath string) (int, error) {
	if icon, err := svc.FindIconByName(sess, nameOrPath); err == nil && icon != nil {
		return icon.ID, nil
	}
	if _, err := os.Stat(nameOrPath); err == nil {
		return importIconFile(svc, sess, nameOrPath)
	}
	return 0, fmt.Errorf("icon %q not found (use 'passkeep icons add' first)", nameOrPath)
}

func init() {
	groupsCmd.PersistentFlags().StringVarP(&groupUser, "user", "u", "", "vault username")
	_ = groupsCmd.MarkPersistentFlagRequired("user")
	groupsAddCmd.Flags().StringVarP(&groupDescription, "description", "d", "", "group description")
	groupsAddCmd.Flags().StringVar(&groupIcon, "icon", "", "icon name or image file path")
	groupsEditCmd.Flags().StringVarP(&groupDescription, "description", "d", "", "group description")
	groupsEditCmd.Flags().StringVar(&groupIcon, "icon", "", "icon name or image file path")
	groupsCmd.AddCommand(groupsListCmd, groupsAddCmd, groupsRmCmd, groupsEditCmd)
	rootCmd.AddCommand(groupsCmd)
}
