// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"github.com/passkeep/passkeep/internal/model"
)

// Store defines the interface for all database operations in Passkeep.
// This allows for multiple database backends to be implemented.
//
// Point reads return (nil, nil) when no row matches; "not found" is a state,
// not an error. Delete methods report the number of top-level rows removed;
// deleting a nonexistent id yields (0, nil).
type Store interface {
	// User methods
	AddUser(username string, salt, keyCheck []byte) (int, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	// RekeyUser atomically replaces a user's key material and every
	// re-encrypted credential secret. Used by master password change.
	RekeyUser(id int, salt, keyCheck []byte, secrets []model.CredentialSecrets) error
	DeleteUser(id int) (int, error)

	// Group methods
	AddGroup(name, description string, iconID, userID int) (int, error)
	GetGroup(id int) (*model.Group, error)
	GetGroupsForUser(userID int) ([]model.Group, error)
	UpdateGroup(g model.Group) error
	DeleteGroup(id int) (int, error)

	// Icon methods
	AddIcon(name string, image []byte) (int, error)
	GetIcon(id int) (*model.Icon, error)
	GetIconByName(name string) (*model.Icon, error)
	GetAllIcons() ([]model.Icon, error)
	UpdateIcon(i model.Icon) error
	DeleteIcon(id int) (int, error)

	// Credential methods
	AddCredential(c model.Credential, att *model.Attachment) (int, error)
	GetCredential(id int) (*model.Credential, error)
	GetCredentialsForUser(userID int) ([]model.Credential, error)
	GetCredentialsForGroup(groupID int) ([]model.Credential, error)
	UpdateCredential(c model.Credential) error
	DeleteCredential(id int) (int, error)

	// Attachment methods
	AddAttachment(a model.Attachment) (int, error)
	GetAttachmentForCredential(credentialID int) (*model.Attachment, error)
	DeleteAttachment(id int) (int, error)

	// Audit Log methods
	LogAction(action string, details string) error
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
}
