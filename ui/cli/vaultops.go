// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/passkeep/passkeep/internal/db"
	"github.com/passkeep/passkeep/internal/vault"
)

var genLength int
var genNoUpper bool
var genNoDigits bool
var genNoSymbols bool

var backupCmd = &cobra.Command{
	Use:     "backup <file>",
	Short:   "Export the whole vault to a compressed snapshot",
	Long:    "Exports every table to a zstd-compressed JSON snapshot. Secrets stay encrypted; the file is only useful together with the master passwords.",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		backuper, ok := db.Default().(db.Backuper)
		if !ok {
			return fmt.Errorf("the active database backend does not support backups")
		}
		f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := backuper.ExportBackup(f); err != nil {
			return err
		}
		fmt.Printf("Vault exported to %s\n", args[0])
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:     "restore <file>",
	Short:   "Replace the vault contents with a snapshot",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		backuper, ok := db.Default().(db.Backuper)
		if !ok {
			return fmt.Errorf("the active database backend does not support backups")
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if err := backuper.ImportBackup(f); err != nil {
			return err
		}
		fmt.Printf("Vault restored from %s\n", args[0])
		return nil
	},
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Run database housekeeping (vacuum, integrity check)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupDefaultServices(cmd, args); err != nil {
			return err
		}
		return db.RunDBMaintenance(appConfig.Database.Type, appConfig.Database.DSN)
	},
}

var auditCmd = &cobra.Command{
	Use:     "audit",
	Short:   "Show the vault audit trail",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := db.Default().GetAllAuditLogEntries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Audit log is empty.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-12s %-18s %s\n", e.Timestamp, e.Username, e.Action, e.Details)
		}
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random password",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := vault.GeneratorOptions{
			Upper:   !genNoUpper,
			Digits:  !genNoDigits,
			Symbols: !genNoSymbols,
		}
		pw, err := vault.GeneratePassword(genLength, opts)
		if err != nil {
			return err
		}
		defer pw.Zero()
		return pw.Use(func(b []byte) error {
			_, err := fmt.Println(string(b))
			return err
		})
	},
}

func init() {
	generateCmd.Flags().IntVarP(&genLength, "length", "l", 20, "password length")
	generateCmd.Flags().BoolVar(&genNoUpper, "no-upper", false, "skip uppercase letters")
	generateCmd.Flags().BoolVar(&genNoDigits, "no-digits", false, "skip digits")
	generateCmd.Flags().BoolVar(&genNoSymbols, "no-symbols", false, "skip symbols")
	rootCmd.AddCommand(backupCmd, restoreCmd, maintenanceCmd, auditCmd, generateCmd)
}
