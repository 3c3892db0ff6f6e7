// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/passkeep/passkeep/internal/clipboard"
	"github.com/passkeep/passkeep/internal/model"
	"github.com/passkeep/passkeep/internal/security"
	"github.com/passkeep/passkeep/internal/vault"
)

var credUser string
var credGroup int
var credReveal bool
var credTitle string
var credURL string
var credComment string
var credExpires string
var credAttach string
var credGenerate bool
var credLength int

var credsCmd = &cobra.Command{
	Use:   "creds",
	Short: "Manage stored credentials",
}

var credsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List credentials, masked unless --reveal is given",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newVaultService()
		sess, err := unlockSession(svc, credUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		if cmd.Flags().Changed("reveal") {
			sess.SetReveal(credReveal)
		}
		scope := model.All()
		if credGroup != 0 {
			scope = model.InGroup(credGroup)
		}
		creds, err := svc.ListCredentials(sess, scope)
		if err != nil {
			return err
		}
		if len(creds) == 0 {
			fmt.Println("No credentials.")
			return nil
		}
		printCredentials(creds)
		return nil
	},
}

var credsShowCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show a single credential",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid credential id: %s", args[0])
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, credUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		if cmd.Flags().Changed("reveal") {
			sess.SetReveal(credReveal)
		}
		creds, err := svc.ListCredentials(sess, model.Single(id))
		if err != nil {
			return err
		}
		if len(creds) == 0 {
			return fmt.Errorf("credential %d not found", id)
		}
		printCredentials(creds)
		return nil
	},
}

var credsAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Store a new credential",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		if credTitle == "" {
			return fmt.Errorf("--title is required")
		}
		if credGroup == 0 {
			return fmt.Errorf("--group is required")
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, credUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		fields, err := promptCredentialFields()
		if err != nil {
			return err
		}
		defer fields.Username.Zero()
		defer fields.Password.Zero()

		var att *model.Attachment
		if credAttach != "" {
			data, err := os.ReadFile(credAttach)
			if err != nil {
				return err
			}
			att = &model.Attachment{FileName: filepath.Base(credAttach), Data: data}
		}
		id, err := svc.CreateCredential(sess, fields, att)
		if err != nil {
			return err
		}
		fmt.Printf("Stored credential %q (id %d)\n", credTitle, id)
		return nil
	},
}

var credsEditCmd = &cobra.Command{
	Use:     "edit <id>",
	Short:   "Replace a credential's fields",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid credential id: %s", args[0])
		}
		if credTitle == "" {
			return fmt.Errorf("--title is required")
		}
		if credGroup == 0 {
			return fmt.Errorf("--group is required")
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, credUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		fields, err := promptCredentialFields()
		if err != nil {
			return err
		}
		defer fields.Username.Zero()
		defer fields.Password.Zero()

		if err := svc.UpdateCredential(sess, id, fields); err != nil {
			return err
		}
		fmt.Printf("Updated credential %d\n", id)
		return nil
	},
}

var credsRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Short:   "Delete a credential and its attachment",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid credential id: %s", args[0])
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, credUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		if err := svc.DeleteCredential(sess, id); err != nil {
			return err
		}
		fmt.Printf("Deleted credential %d\n", id)
		return nil
	},
}

var credsCopyCmd = &cobra.Command{
	Use:     "copy <id>",
	Short:   "Copy a password to the clipboard, cleared after a timeout",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid credential id: %s", args[0])
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, credUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		secret, err := svc.RevealPassword(sess, id)
		if err != nil {
			return err
		}
		guard := newClipboardGuard()
		err = secret.Use(func(b []byte) error {
			return guard.Copy(string(b))
		})
		secret.Zero()
		if err != nil {
			return err
		}
		window := appConfig.Clipboard.Window
		if window <= 0 {
			window = clipboard.DefaultWindow
		}
		fmt.Printf("Password copied, clearing clipboard in %s...\n", window)
		// The clear fires on the guard's timer goroutine; hold the
		// process open until it has run.
		time.Sleep(window + 250*time.Millisecond)
		fmt.Println("Clipboard cleared.")
		return nil
	},
}

var credsAttachCmd = &cobra.Command{
	Use:     "attach <id> <file>",
	Short:   "Attach a file to a credential",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid credential id: %s", args[0])
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, credUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		if _, err := svc.AddAttachment(sess, id, filepath.Base(args[1]), data); err != nil {
			return err
		}
		fmt.Printf("Attached %s to credential %d\n", filepath.Base(args[1]), id)
		return nil
	},
}

var credsSaveFileCmd = &cobra.Command{
	Use:     "save-file <id> [dir]",
	Short:   "Write a credential's attachment to disk",
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid credential id: %s", args[0])
		}
		svc := newVaultService()
		sess, err := unlockSession(svc, credUser)
		if err != nil {
			return err
		}
		defer sess.Lock()

		att, err := svc.GetAttachment(sess, id)
		if err != nil {
			return err
		}
		dir := "."
		if len(args) == 2 {
			dir = args[1]
		}
		out := filepath.Join(dir, att.FileName)
		if err := os.WriteFile(out, att.Data, 0600); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d bytes)\n", out, len(att.Data))
		return nil
	},
}

// promptCredentialFields collects the account username and password from
// the terminal (or the generator) and assembles the flag-driven fields.
func promptCredentialFields() (vault.CredentialFields, error) {
	var fields vault.CredentialFields

	fmt.Print("Account username: ")
	var account string
	if _, err := fmt.Scanln(&account); err != nil && account == "" {
		return fields, fmt.Errorf("reading account username: %w", err)
	}

	var password security.Secret
	if credGenerate {
		var err error
		password, err = vault.GeneratePassword(credLength, vault.DefaultGeneratorOptions())
		if err != nil {
			return fields, err
		}
	} else {
		var err error
		password, err = promptPassword("Account password: ")
		if err != nil {
			return fields, err
		}
	}

	var expiresAt *time.Time
	if credExpires != "" {
		t, err := time.Parse("2006-01-02", credExpires)
		if err != nil {
			return fields, fmt.Errorf("invalid --expires date (want YYYY-MM-DD): %w", err)
		}
		expiresAt = &t
	}

	fields = vault.CredentialFields{
		Title:     credTitle,
		Username:  security.FromString(account),
		Password:  password,
		URL:       credURL,
		Comment:   credComment,
		ExpiresAt: expiresAt,
		GroupID:   credGroup,
	}
	return fields, nil
}

func printCredentials(creds []model.CredentialView) {
	now := time.Now()
	for _, c := range creds {
		line := fmt.Sprintf("%4d  %-24s  %s / %s", c.ID, c.Title, c.Username, c.Password)
		if c.URL != "" {
			line += "  " + c.URL
		}
		if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
			line += "  [EXPIRED]"
		}
		fmt.Println(line)
		if c.Comment != "" {
			fmt.Printf("      %s\n", c.Comment)
		}
	}
}

func init() {
	credsCmd.PersistentFlags().StringVarP(&credUser, "user", "u", "", "vault username")
	_ = credsCmd.MarkPersistentFlagRequired("user")

	credsListCmd.Flags().IntVarP(&credGroup, "group", "g", 0, "restrict to one group id")
	credsListCmd.Flags().BoolVar(&credReveal, "reveal", false, "show plaintext instead of masks")
	credsShowCmd.Flags().BoolVar(&credReveal, "reveal", false, "show plaintext instead of masks")

	for _, c := range []*cobra.Command{credsAddCmd, credsEditCmd} {
		c.Flags().StringVarP(&credTitle, "title", "t", "", "credential title")
		c.Flags().IntVarP(&credGroup, "group", "g", 0, "group id")
		c.Flags().StringVar(&credURL, "url", "", "site or service URL")
		c.Flags().StringVar(&credComment, "comment", "", "free-form note")
		c.Flags().StringVar(&credExpires, "expires", "", "expiry date, YYYY-MM-DD")
		c.Flags().BoolVar(&credGenerate, "generate", false, "generate the password instead of prompting")
		c.Flags().IntVar(&credLength, "length", 20, "generated password length")
	}
	credsAddCmd.Flags().StringVar(&credAttach, "attach", "", "file to attach")

	credsCmd.AddCommand(credsListCmd, credsShowCmd, credsAddCmd, credsEditCmd,
		credsRmCmd, credsCopyCmd, credsAttachCmd, credsSaveFileCmd)
	rootCmd.AddCommand(credsCmd)
}
