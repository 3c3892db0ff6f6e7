// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package vault is the orchestration layer of Passkeep. It ties key
// derivation, field encryption and the entity store together behind the one
// API the UI consumes. The service, not the caller, decides whether secret
// fields come back in clear or masked.
package vault

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/passkeep/passkeep/internal/crypto"
	"github.com/passkeep/passkeep/internal/db"
	"github.com/passkeep/passkeep/internal/logging"
	"github.com/passkeep/passkeep/internal/model"
	"github.com/passkeep/passkeep/internal/security"
)

// AAD labels binding ciphertext blobs to their columns.
const (
	aadUsername = "username"
	aadPassword = "password"
)

// maskPlaceholder is the fixed-length stand-in returned for secret fields
// outside reveal mode. Fixed length so the mask leaks nothing about the
// secret's size.
const maskPlaceholder = "••••••••"

var (
	// ErrAuth is returned on failed unlock. It carries no detail about
	// whether the user exists or the password was wrong.
	ErrAuth = errors.New("vault: authentication failed")
	// ErrNotFound is returned when an id does not resolve to a row owned by
	// the session user.
	ErrNotFound = errors.New("vault: not found")
	// ErrLocked is returned when operating on a locked session.
	ErrLocked = errors.New("vault: session locked")
)

// Options configure service behavior. Zero value gives the defaults.
type Options struct {
	// KDF overrides the argon2id work factor; zero value means defaults.
	KDF crypto.Params
	// RevealDefault controls whether fresh sessions start in reveal mode.
	RevealDefault bool
	// UniqueGroupNames enforces per-user group name uniqueness.
	UniqueGroupNames bool
}

// DefaultOptions returns the shipped configuration: desktop KDF params,
// masked by default, unique group names enforced.
func DefaultOptions() Options {
	return Options{KDF: crypto.DefaultParams(), RevealDefault: false, UniqueGroupNames: true}
}

// Service exposes the vault operations. One Service is safe for one caller
// at a time per session; the store serializes writes through its own
// transactions.
type Service struct {
	store db.Store
	opts  Options
}

// New creates a Service on top of the given store handle (dependency
// passing, no globals).
func New(store db.Store, opts Options) *Service {
	if opts.KDF == (crypto.Params{}) {
		opts.KDF = crypto.DefaultParams()
	}
	return &Service{store: store, opts: opts}
}

// CredentialFields carries the caller-supplied fields for credential create
// and update. Username and Password arrive as plaintext secrets and are
// sealed before the store ever sees them.
type CredentialFields struct {
	Title     string
	Username  security.Secret
	Password  security.Secret
	URL       string
	Comment   string
	ExpiresAt *time.Time // nil means "never expires"
	GroupID   int
}

// Register creates a new vault user. The master password itself is never
// stored; only the salt and a key-check value derived from it.
func (v *Service) Register(username string, master security.Secret) (int, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, fmt.Errorf("vault: username must not be empty")
	}
	if len(master) == 0 {
		return 0, fmt.Errorf("vault: master password must not be empty")
	}
	salt, err := crypto.NewSalt()
	if err != nil {
		return 0, err
	}
	key := crypto.DeriveKey(master, salt, v.opts.KDF)
	defer key.Zero()
	keyCheck, err := crypto.NewKeyCheck(key)
	if err != nil {
		return 0, err
	}
	id, err := v.store.AddUser(username, salt, keyCheck)
	if err != nil {
		return 0, err
	}
	logging.Infof("vault: registered user %s", username)
	return id, nil
}

// Unlock verifies the master password and returns an unlocked session
// holding the derived key. Failed verification yields ErrAuth; the password
// is never logged.
func (v *Service) Unlock(username string, master security.Secret) (*Session, error) {
	u, err := v.store.GetUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("vault: unlock failed: %w", err)
	}
	if u == nil {
		// Burn a derivation anyway so a missing user is not distinguishable
		// from a wrong password by timing.
		salt, _ := crypto.NewSalt()
		k := crypto.DeriveKey(master, salt, v.opts.KDF)
		k.Zero()
		return nil, ErrAuth
	}
	ok, key := crypto.Verify(master, u.Salt, u.KeyCheck, v.opts.KDF)
	if !ok {
		return nil, ErrAuth
	}
	logging.Infof("vault: unlocked for user %s", username)
	return newSession(u.ID, u.Username, key, v.opts.RevealDefault), nil
}

// ListGroups returns the session user's groups with icon names resolved.
func (v *Service) ListGroups(s *Session) ([]model.GroupView, error) {
	if _, err := s.valid(); err != nil {
		return nil, err
	}
	groups, err := v.store.GetGroupsForUser(s.UserID)
	if err != nil {
		return nil, err
	}
	views := make([]model.GroupView, 0, len(groups))
	for _, g := range groups {
		view := model.GroupView{ID: g.ID, Name: g.Name, Description: g.Description, IconID: g.IconID}
		if g.IconID != 0 {
			if icon, err := v.store.GetIcon(g.IconID); err == nil && icon != nil {
				view.IconName = icon.Name
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// ListCredentials returns credential views for the given scope. Outside
// reveal mode the username/password fields carry the mask placeholder;
// inside it they are decrypted lazily, one row at a time.
func (v *Service) ListCredentials(s *Session, scope model.Scope) ([]model.CredentialView, error) {
	key, err := s.valid()
	if err != nil {
		return nil, err
	}

	var creds []model.Credential
	switch scope.Kind {
	case model.ScopeAll:
		creds, err = v.store.GetCredentialsForUser(s.UserID)
	case model.ScopeGroup:
		if _, err := v.ownedGroup(s, scope.ID); err != nil {
			return nil, err
		}
		creds, err = v.store.GetCredentialsForGroup(scope.ID)
	case model.ScopeSingle:
		var c *model.Credential
		c, err = v.ownedCredential(s, scope.ID)
		if err != nil {
			return nil, err
		}
		creds = []model.Credential{*c}
	default:
		return nil, fmt.Errorf("vault: unknown scope %v", scope)
	}
	if err != nil {
		return nil, err
	}

	views := make([]model.CredentialView, 0, len(creds))
	for _, c := range creds {
		view := model.CredentialView{
			ID:         c.ID,
			Title:      c.Title,
			URL:        c.URL,
			Comment:    c.Comment,
			CreatedAt:  c.CreatedAt,
			ModifiedAt: c.ModifiedAt,
			ExpiresAt:  c.ExpiresAt,
			GroupID:    c.GroupID,
		}
		if s.Reveal() {
			username, err := crypto.Open(key, c.Username, aadUsername)
			if err != nil {
				return nil, fmt.Errorf("vault: credential %d: %w", c.ID, err)
			}
			password, err := crypto.Open(key, c.Password, aadPassword)
			if err != nil {
				username.Zero()
				return nil, fmt.Errorf("vault: credential %d: %w", c.ID, err)
			}
			view.Username = string(username)
			view.Password = string(password)
			view.Revealed = true
		} else {
			view.Username = maskPlaceholder
			view.Password = maskPlaceholder
		}
		views = append(views, view)
	}
	return views, nil
}

// RevealPassword decrypts and returns a single credential's password
// regardless of the session's reveal flag. It exists for the copy flow,
// which needs the clear value exactly once; the value goes straight to the
// clipboard guard and is never listed.
func (v *Service) RevealPassword(s *Session, credentialID int) (security.Secret, error) {
	key, err := s.valid()
	if err != nil {
		return nil, err
	}
	c, err := v.ownedCredential(s, credentialID)
	if err != nil {
		return nil, err
	}
	plain, err := crypto.Open(key, c.Password, aadPassword)
	if err != nil {
		return nil, fmt.Errorf("vault: credential %d: %w", c.ID, err)
	}
	return plain, nil
}

// CreateCredential seals the secret fields under the session key and stores
// the credential, together with an optional attachment, in one transaction.
func (v *Service) CreateCredential(s *Session, f CredentialFields, att *model.Attachment) (int, error) {
	key, err := s.valid()
	if err != nil {
		return 0, err
	}
	if _, err := v.ownedGroup(s, f.GroupID); err != nil {
		return 0, err
	}
	usernameEnc, err := crypto.Seal(key, f.Username, aadUsername)
	if err != nil {
		return 0, err
	}
	passwordEnc, err := crypto.Seal(key, f.Password, aadPassword)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	c := model.Credential{
		Title:      f.Title,
		Username:   usernameEnc,
		Password:   passwordEnc,
		URL:        f.URL,
		Comment:    f.Comment,
		CreatedAt:  now,
		ModifiedAt: now,
		ExpiresAt:  f.ExpiresAt,
		GroupID:    f.GroupID,
		UserID:     s.UserID,
	}
	return v.store.AddCredential(c, att)
}

// UpdateCredential re-seals the secret fields and replaces the row. The
// modified timestamp is refreshed on every update.
func (v *Service) UpdateCredential(s *Session, id int, f CredentialFields) error {
	key, err := s.valid()
	if err != nil {
		return err
	}
	existing, err := v.ownedCredential(s, id)
	if err != nil {
		return err
	}
	if _, err := v.ownedGroup(s, f.GroupID); err != nil {
		return err
	}
	usernameEnc, err := crypto.Seal(key, f.Username, aadUsername)
	if err != nil {
		return err
	}
	passwordEnc, err := crypto.Seal(key, f.Password, aadPassword)
	if err != nil {
		return err
	}
	c := *existing
	c.Title = f.Title
	c.Username = usernameEnc
	c.Password = passwordEnc
	c.URL = f.URL
	c.Comment = f.Comment
	c.ExpiresAt = f.ExpiresAt
	c.GroupID = f.GroupID
	c.ModifiedAt = time.Now().UTC()
	return v.store.UpdateCredential(c)
}

// DeleteCredential removes a credential and its attachment.
func (v *Service) DeleteCredential(s *Session, id int) error {
	if _, err := s.valid(); err != nil {
		return err
	}
	if _, err := v.ownedCredential(s, id); err != nil {
		return err
	}
	_, err := v.store.DeleteCredential(id)
	return err
}

// CreateGroup adds a group for the session user. With unique names enabled a
// clash yields db.ErrDuplicate so callers can pick another name.
func (v *Service) CreateGroup(s *Session, name, description string, iconID int) (int, error) {
	if _, err := s.valid(); err != nil {
		return 0, err
	}
	if err := v.checkGroupName(s, name, 0); err != nil {
		return 0, err
	}
	return v.store.AddGroup(name, description, iconID, s.UserID)
}

// UpdateGroup replaces a group's name, description and icon reference.
func (v *Service) UpdateGroup(s *Session, id int, name, description string, iconID int) error {
	if _, err := s.valid(); err != nil {
		return err
	}
	g, err := v.ownedGroup(s, id)
	if err != nil {
		return err
	}
	if err := v.checkGroupName(s, name, id); err != nil {
		return err
	}
	updated := *g
	updated.Name = name
	updated.Description = description
	updated.IconID = iconID
	return v.store.UpdateGroup(updated)
}

// DeleteGroup removes a group and every credential in it.
func (v *Service) DeleteGroup(s *Session, id int) error {
	if _, err := s.valid(); err != nil {
		return err
	}
	if _, err := v.ownedGroup(s, id); err != nil {
		return err
	}
	_, err := v.store.DeleteGroup(id)
	return err
}

// CreateIcon stores a new shared icon. A duplicate name is recoverable: the
// caller may reuse the existing row (db.ErrDuplicate) instead of failing.
func (v *Service) CreateIcon(s *Session, name string, image []byte) (int, error) {
	if _, err := s.valid(); err != nil {
		return 0, err
	}
	return v.store.AddIcon(name, image)
}

// FindIconByName looks up a shared icon by its unique name. Returns
// (nil, nil) when no icon carries that name.
func (v *Service) FindIconByName(s *Session, name string) (*model.Icon, error) {
	if _, err := s.valid(); err != nil {
		return nil, err
	}
	return v.store.GetIconByName(name)
}

// ListIcons returns all shared icons.
func (v *Service) ListIcons(s *Session) ([]model.Icon, error) {
	if _, err := s.valid(); err != nil {
		return nil, err
	}
	return v.store.GetAllIcons()
}

// UpdateIcon replaces an icon's name and payload.
func (v *Service) UpdateIcon(s *Session, id int, name string, image []byte) error {
	if _, err := s.valid(); err != nil {
		return err
	}
	icon, err := v.store.GetIcon(id)
	if err != nil {
		return err
	}
	if icon == nil {
		return ErrNotFound
	}
	return v.store.UpdateIcon(model.Icon{ID: id, Name: name, Image: image})
}

// DeleteIcon removes an icon unless a group still references it, in which
// case the store reports db.ErrIconInUse (fail closed).
func (v *Service) DeleteIcon(s *Session, id int) error {
	if _, err := s.valid(); err != nil {
		return err
	}
	_, err := v.store.DeleteIcon(id)
	return err
}

// GetAttachment returns the attachment of one of the session user's
// credentials, or ErrNotFound.
func (v *Service) GetAttachment(s *Session, credentialID int) (*model.Attachment, error) {
	if _, err := s.valid(); err != nil {
		return nil, err
	}
	if _, err := v.ownedCredential(s, credentialID); err != nil {
		return nil, err
	}
	att, err := v.store.GetAttachmentForCredential(credentialID)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, ErrNotFound
	}
	return att, nil
}

// AddAttachment attaches a file to an existing credential.
func (v *Service) AddAttachment(s *Session, credentialID int, fileName string, data []byte) (int, error) {
	if _, err := s.valid(); err != nil {
		return 0, err
	}
	if _, err := v.ownedCredential(s, credentialID); err != nil {
		return 0, err
	}
	return v.store.AddAttachment(model.Attachment{CredentialID: credentialID, FileName: fileName, Data: data})
}

// ChangeMasterPassword re-derives the key from the new password and
// re-encrypts every credential secret of the user. The store swaps key
// material and ciphertexts atomically; on any fault the old password keeps
// working.
func (v *Service) ChangeMasterPassword(s *Session, oldMaster, newMaster security.Secret) error {
	key, err := s.valid()
	if err != nil {
		return err
	}
	if len(newMaster) == 0 {
		return fmt.Errorf("vault: new master password must not be empty")
	}
	u, err := v.store.GetUserByID(s.UserID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	ok, oldKey := crypto.Verify(oldMaster, u.Salt, u.KeyCheck, v.opts.KDF)
	if !ok {
		return ErrAuth
	}
	oldKey.Zero()

	newSalt, err := crypto.NewSalt()
	if err != nil {
		return err
	}
	newKey := crypto.DeriveKey(newMaster, newSalt, v.opts.KDF)
	newCheck, err := crypto.NewKeyCheck(newKey)
	if err != nil {
		newKey.Zero()
		return err
	}

	creds, err := v.store.GetCredentialsForUser(s.UserID)
	if err != nil {
		newKey.Zero()
		return err
	}
	secrets := make([]model.CredentialSecrets, 0, len(creds))
	for _, c := range creds {
		username, err := crypto.Open(key, c.Username, aadUsername)
		if err != nil {
			newKey.Zero()
			return fmt.Errorf("vault: credential %d: %w", c.ID, err)
		}
		password, err := crypto.Open(key, c.Password, aadPassword)
		if err != nil {
			username.Zero()
			newKey.Zero()
			return fmt.Errorf("vault: credential %d: %w", c.ID, err)
		}
		usernameEnc, err := crypto.Seal(newKey, username, aadUsername)
		username.Zero()
		if err != nil {
			password.Zero()
			newKey.Zero()
			return err
		}
		passwordEnc, err := crypto.Seal(newKey, password, aadPassword)
		password.Zero()
		if err != nil {
			newKey.Zero()
			return err
		}
		secrets = append(secrets, model.CredentialSecrets{ID: c.ID, Username: usernameEnc, Password: passwordEnc})
	}

	if err := v.store.RekeyUser(s.UserID, newSalt, newCheck, secrets); err != nil {
		newKey.Zero()
		return err
	}
	// Swap the session key so the session stays usable.
	s.key.Zero()
	s.key = newKey
	logging.Infof("vault: master password changed for user %s", s.Username)
	return nil
}

// DeleteAccount removes the session user and everything they own, then
// locks the session. The master password is required as confirmation.
func (v *Service) DeleteAccount(s *Session, master security.Secret) error {
	if _, err := s.valid(); err != nil {
		return err
	}
	u, err := v.store.GetUserByID(s.UserID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	ok, key := crypto.Verify(master, u.Salt, u.KeyCheck, v.opts.KDF)
	if !ok {
		return ErrAuth
	}
	key.Zero()
	if _, err := v.store.DeleteUser(s.UserID); err != nil {
		return err
	}
	s.Lock()
	return nil
}

// ownedCredential resolves a credential id and checks ownership. A row
// belonging to another user reports ErrNotFound, not a permission error, so
// existence is not leaked.
func (v *Service) ownedCredential(s *Session, id int) (*model.Credential, error) {
	c, err := v.store.GetCredential(id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.UserID != s.UserID {
		return nil, ErrNotFound
	}
	return c, nil
}

// ownedGroup resolves a group id and checks ownership.
func (v *Service) ownedGroup(s *Session, id int) (*model.Group, error) {
	g, err := v.store.GetGroup(id)
	if err != nil {
		return nil, err
	}
	if g == nil || g.UserID != s.UserID {
		return nil, ErrNotFound
	}
	return g, nil
}

// checkGroupName enforces per-user group name uniqueness when enabled.
// excludeID skips the group being renamed.
func (v *Service) checkGroupName(s *Session, name string, excludeID int) error {
	if !v.opts.UniqueGroupNames {
		return nil
	}
	groups, err := v.store.GetGroupsForUser(s.UserID)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if g.ID != excludeID && g.Name == name {
			return fmt.Errorf("vault: group name %q: %w", name, db.ErrDuplicate)
		}
	}
	return nil
}
