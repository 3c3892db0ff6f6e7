// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model holds the shared data structures passed between the store,
// the vault service and its callers. These are plain structs with no UI or
// storage types so any front end can consume them.
package model

import (
	"fmt"
	"time"
)

// User is an account in the vault. Only verification material derived from
// the master password is ever stored; the password itself never is.
type User struct {
	ID        int
	Username  string
	Salt      []byte
	KeyCheck  []byte
	CreatedAt time.Time
}

// String returns the username; verification material is never printed.
func (u User) String() string { return u.Username }

// Group is a named collection of credentials owned by a single user.
type Group struct {
	ID          int
	Name        string
	Description string
	IconID      int
	UserID      int
}

// Icon is a shared display image referenced by groups. Multiple groups may
// reference the same icon row.
type Icon struct {
	ID    int
	Name  string
	Image []byte
}

// Credential is a stored login. Username and Password hold ciphertext as
// produced by the field cipher; Title, URL and Comment are stored in clear
// because they are used directly for search and sorting.
type Credential struct {
	ID         int
	Title      string
	Username   []byte // ciphertext
	Password   []byte // ciphertext
	URL        string
	Comment    string
	CreatedAt  time.Time
	ModifiedAt time.Time
	ExpiresAt  *time.Time // nil means "never expires"
	GroupID    int
	UserID     int
}

// Expired reports whether the credential has an expiry in the past.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Attachment is a binary file owned by exactly one credential. It is deleted
// together with its owner.
type Attachment struct {
	ID           int
	CredentialID int
	FileName     string
	Data         []byte
}

// CredentialSecrets carries re-encrypted secret fields during a master
// password change. The store swaps all of them together with the user's key
// material in one transaction.
type CredentialSecrets struct {
	ID       int
	Username []byte // ciphertext under the new key
	Password []byte // ciphertext under the new key
}

// AuditLogEntry represents a single audit event for vault mutations. Details
// never contain secret material.
type AuditLogEntry struct {
	ID        int
	Timestamp string
	Username  string
	Action    string
	Details   string
}

// BackupData is the serialized form of a full vault export. Credential
// secret columns stay ciphertext; a backup never contains plaintext secrets.
type BackupData struct {
	SchemaVersion int             `json:"schema_version"`
	Users         []User          `json:"users"`
	Icons         []Icon          `json:"icons"`
	Groups        []Group         `json:"groups"`
	Credentials   []Credential    `json:"credentials"`
	Attachments   []Attachment    `json:"attachments"`
	AuditLog      []AuditLogEntry `json:"audit_log"`
}

// ScopeKind discriminates the credential listing scope.
type ScopeKind int

const (
	// ScopeAll selects every credential owned by the session user.
	ScopeAll ScopeKind = iota
	// ScopeGroup selects the credentials of one group.
	ScopeGroup
	// ScopeSingle selects a single credential by id.
	ScopeSingle
)

// Scope is the tagged variant consumed by ListCredentials. Use the
// constructors below rather than building it by hand.
type Scope struct {
	Kind ScopeKind
	ID   int
}

// All returns a scope covering every credential of the user.
func All() Scope { return Scope{Kind: ScopeAll} }

// InGroup returns a scope covering one group's credentials.
func InGroup(groupID int) Scope { return Scope{Kind: ScopeGroup, ID: groupID} }

// Single returns a scope covering exactly one credential.
func Single(credentialID int) Scope { return Scope{Kind: ScopeSingle, ID: credentialID} }

// String renders the scope for logging and error messages.
func (s Scope) String() string {
	switch s.Kind {
	case ScopeGroup:
		return fmt.Sprintf("group(%d)", s.ID)
	case ScopeSingle:
		return fmt.Sprintf("single(%d)", s.ID)
	default:
		return "all"
	}
}

// GroupView is the caller-facing representation of a group.
type GroupView struct {
	ID          int
	Name        string
	Description string
	IconID      int
	IconName    string
}

// CredentialView is the caller-facing representation of a credential. The
// Username and Password fields carry either the decrypted values (reveal
// mode) or a fixed-length mask; Revealed reports which.
type CredentialView struct {
	ID         int
	Title      string
	Username   string
	Password   string
	URL        string
	Comment    string
	CreatedAt  time.Time
	ModifiedAt time.Time
	ExpiresAt  *time.Time
	GroupID    int
	Revealed   bool
}
