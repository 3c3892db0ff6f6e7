// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/passkeep/passkeep/internal/db"
	"github.com/passkeep/passkeep/internal/vault"
)

var iconUser string
var iconName string

var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "Manage shared group icons",
}

var iconsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored icons",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newVaultService()
		sess, err := unlockSession(svc, iconUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		icons, err := svc.ListIcons(sess)
		if err != nil {
			return err
		}
		if len(icons) == 0 {
			fmt.Println("No icons.")
			return nil
		}
		for _, ic := range icons {
			fmt.Printf("%4d  %s  (%d bytes)\n", ic.ID, ic.Name, len(ic.Image))
		}
		return nil
	},
}

var iconsAddCmd = &cobra.Command{
	Use:     "add <file>",
	Short:   "Import an image file as an icon",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newVaultService()
		sess, err := unlockSession(svc, iconUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		id, err := importIconFile(svc, sess, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Stored icon (id %d)\n", id)
		return nil
	},
}

var iconsRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Short:   "Delete an icon that no group uses",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid icon id: %s", args[0])
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, iconUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		if err := svc.DeleteIcon(sess, id); err != nil {
			if errors.Is(err, db.ErrIconInUse) {
				return fmt.Errorf("icon %d is still used by a group", id)
			}
			return err
		}
		fmt.Printf("Deleted icon %d\n", id)
		return nil
	},
}

var iconsEditCmd = &cobra.Command{
	Use:     "edit <id> <file>",
	Short:   "Replace an icon's image",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid icon id: %s", args[0])
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, iconUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		name := iconName
		if name == "" {
			name = iconBaseName(args[1])
		}
		if err := svc.UpdateIcon(sess, id, name, data); err != nil {
			return err
		}
		fmt.Printf("Updated icon %d\n", id)
		return nil
	},
}

// importIconFile stores an image file as a named icon. When an icon with
// the same name already exists, its id is returned instead of an error.
func importIconFile(svc *vault.Service, sess *vault.Session, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	name := iconName
	if name == "" {
		name = iconBaseName(path)
	}
	id, err := svc.CreateIcon(sess, name, data)
	if errors.Is(err, db.ErrDuplicate) {
		existing, ferr := svc.FindIconByName(sess, name)
		if ferr != nil {
			return 0, ferr
		}
		if existing != nil {
			return existing.ID, nil
		}
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// iconBaseName derives the icon name from a file path, "logo" for
// "/tmp/logo.png".
func iconBaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func init() {
	iconsCmd.PersistentFlags().StringVarP(&iconUser, "user", "u", "", "vault username")
	_ = iconsCmd.MarkPersistentFlagRequired("user")
	iconsAddCmd.Flags().StringVarP(&iconName, "name", "n", "", "icon name (defaults to the file name)")
	iconsEditCmd.Flags().StringVarP(&iconName, "name", "n", "", "icon name (defaults to the file name)")
	iconsCmd.AddCommand(iconsListCmd, iconsAddCmd, iconsRmCmd, iconsEditCmd)
	rootCmd.AddCommand(iconsCmd)
}
