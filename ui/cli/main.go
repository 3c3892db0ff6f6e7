// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the Passkeep
// application using the Cobra library. It defines the root command, the
// subcommands (register, groups, creds, icons, copy, backup, ...), flags,
// and the main entry point for execution. The CLI is a thin caller of the
// vault service, standing in for the GUI front end.

package cli

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/passkeep/passkeep/internal/clipboard"
	"github.com/passkeep/passkeep/internal/config"
	"github.com/passkeep/passkeep/internal/crypto"
	"github.com/passkeep/passkeep/internal/db"
	"github.com/passkeep/passkeep/internal/logging"
	"github.com/passkeep/passkeep/internal/security"
	"github.com/passkeep/passkeep/internal/vault"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA

var cfgFile string
var verbose bool

var appConfig config.Config

// setupDefaultServices loads the configuration and initializes the database
// store. It runs before every command that touches the vault.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	var optionalConfigPath *string
	if cfgFile != "" {
		optionalConfigPath = &cfgFile
	}

	var err error
	appConfig, err = config.LoadConfig(cmd, config.Defaults(), optionalConfigPath)
	// A "file not found" error is expected on first run, so we handle it
	// specifically and persist a default config for subsequent runs.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			log.Warnf("Warning: could not write default config file: %v", writeErr)
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logging.SetDebug(appConfig.Debug || verbose)
	db.SetDebug(appConfig.Debug || verbose)

	if err := db.InitDB(appConfig.Database.Type, appConfig.Database.DSN); err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	return nil
}

// newVaultService builds the vault service from the loaded configuration.
func newVaultService() *vault.Service {
	return vault.New(db.Default(), vault.Options{
		KDF: crypto.Params{
			Time:    appConfig.KDF.Time,
			Memory:  appConfig.KDF.Memory,
			Threads: appConfig.KDF.Threads,
		},
		RevealDefault:    appConfig.Reveal.Default,
		UniqueGroupNames: appConfig.Groups.UniqueNames,
	})
}

// newClipboardGuard builds the clipboard guard from the loaded configuration.
func newClipboardGuard() *clipboard.Guard {
	return clipboard.New(appConfig.Clipboard.Window)
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (security.Secret, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	s := security.FromBytes(raw)
	for i := range raw {
		raw[i] = 0
	}
	return s, nil
}

// unlockSession prompts for the master password and unlocks the vault for
// the given user.
func unlockSession(svc *vault.Service, username string) (*vault.Session, error) {
	master, err := promptPassword(fmt.Sprintf("Master password for %s: ", username))
	if err != nil {
		return nil, err
	}
	defer master.Zero()
	sess, err := svc.Unlock(username, master)
	if err != nil {
		if errors.Is(err, vault.ErrAuth) {
			return nil, fmt.Errorf("authentication failed")
		}
		return nil, err
	}
	return sess, nil
}

var rootCmd = &cobra.Command{
	Use:   "passkeep",
	Short: "Passkeep is a local credential vault",
	Long: `Passkeep stores your credentials in a local database, encrypted per user
under a key derived from your master password. Secret fields are masked by
default and copied values are cleared from the clipboard after a short
exposure window.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("passkeep %s (%s)\n", version, gitCommit)
	},
}

// Execute runs the root command for the Passkeep CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is passkeep.yaml in the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.AddCommand(versionCmd)
}
