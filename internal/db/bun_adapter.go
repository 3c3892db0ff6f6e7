// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/passkeep/passkeep/internal/model"
	"github.com/uptrace/bun"
)

// UserModel maps the `users` table for Bun queries.
type UserModel struct {
	bun.BaseModel `bun:"table:users"`
	ID            int       `bun:"id,pk,autoincrement"`
	Username      string    `bun:"username"`
	Salt          []byte    `bun:"salt"`
	KeyCheck      []byte    `bun:"key_check"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

// IconModel maps the `icons` table.
type IconModel struct {
	bun.BaseModel `bun:"table:icons"`
	ID            int    `bun:"id,pk,autoincrement"`
	Name          string `bun:"name"`
	Image         []byte `bun:"image"`
}

// GroupModel maps the `groups` table.
type GroupModel struct {
	bun.BaseModel `bun:"table:groups"`
	ID            int           `bun:"id,pk,autoincrement"`
	Name          string        `bun:"name"`
	Description   string        `bun:"description"`
	IconID        sql.NullInt64 `bun:"icon_id"`
	UserID        int           `bun:"user_id"`
}

// CredentialModel maps the `credentials` table. Username and password
// columns hold ciphertext blobs produced by the field cipher.
type CredentialModel struct {
	bun.BaseModel `bun:"table:credentials"`
	ID            int        `bun:"id,pk,autoincrement"`
	Title         string     `bun:"title"`
	UsernameEnc   []byte     `bun:"username_enc"`
	PasswordEnc   []byte     `bun:"password_enc"`
	URL           string     `bun:"url"`
	Comment       string     `bun:"comment"`
	CreatedAt     time.Time  `bun:"created_at"`
	ModifiedAt    time.Time  `bun:"modified_at"`
	ExpiresAt     *time.Time `bun:"expires_at"`
	GroupID       int        `bun:"group_id"`
	UserID        int        `bun:"user_id"`
}

// AttachmentModel maps the `attachments` table.
type AttachmentModel struct {
	bun.BaseModel `bun:"table:attachments"`
	ID            int    `bun:"id,pk,autoincrement"`
	CredentialID  int    `bun:"credential_id"`
	FileName      string `bun:"file_name"`
	Data          []byte `bun:"data"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

func userModelToModel(m UserModel) model.User {
	return model.User{ID: m.ID, Username: m.Username, Salt: m.Salt, KeyCheck: m.KeyCheck, CreatedAt: m.CreatedAt}
}

func iconModelToModel(m IconModel) model.Icon {
	return model.Icon{ID: m.ID, Name: m.Name, Image: m.Image}
}

func groupModelToModel(m GroupModel) model.Group {
	g := model.Group{ID: m.ID, Name: m.Name, Description: m.Description, UserID: m.UserID}
	if m.IconID.Valid {
		g.IconID = int(m.IconID.Int64)
	}
	return g
}

func credentialModelToModel(m CredentialModel) model.Credential {
	return model.Credential{
		ID:         m.ID,
		Title:      m.Title,
		Username:   m.UsernameEnc,
		Password:   m.PasswordEnc,
		URL:        m.URL,
		Comment:    m.Comment,
		CreatedAt:  m.CreatedAt,
		ModifiedAt: m.ModifiedAt,
		ExpiresAt:  m.ExpiresAt,
		GroupID:    m.GroupID,
		UserID:     m.UserID,
	}
}

func attachmentModelToModel(m AttachmentModel) model.Attachment {
	return model.Attachment{ID: m.ID, CredentialID: m.CredentialID, FileName: m.FileName, Data: m.Data}
}

// bunStore implements Store on top of a *bun.DB. The per-engine store types
// embed it; engine differences live in the migrations and dialect only.
type bunStore struct {
	bun *bun.DB
}

// --- User methods ---

// AddUser inserts a new user with its key verification material.
func (s *bunStore) AddUser(username string, salt, keyCheck []byte) (int, error) {
	ctx := context.Background()
	m := &UserModel{Username: username, Salt: salt, KeyCheck: keyCheck, CreatedAt: time.Now().UTC()}
	if _, err := s.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	_ = s.LogAction("ADD_USER", fmt.Sprintf("username: %s", username))
	return m.ID, nil
}

// GetUserByUsername returns the user with the given name, or (nil, nil).
func (s *bunStore) GetUserByUsername(username string) (*model.User, error) {
	ctx := context.Background()
	var m UserModel
	err := s.bun.NewSelect().Model(&m).Where("username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u := userModelToModel(m)
	return &u, nil
}

// GetUserByID returns the user with the given id, or (nil, nil).
func (s *bunStore) GetUserByID(id int) (*model.User, error) {
	ctx := context.Background()
	var m UserModel
	err := s.bun.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u := userModelToModel(m)
	return &u, nil
}

// RekeyUser swaps a user's salt and key-check value together with the
// re-encrypted secret columns of all their credentials. Everything happens in
// one transaction so a fault leaves the old key material fully intact.
func (s *bunStore) RekeyUser(id int, salt, keyCheck []byte, secrets []model.CredentialSecrets) error {
	ctx := context.Background()
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model((*UserModel)(nil)).
			Set("salt = ?", salt).
			Set("key_check = ?", keyCheck).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		for _, c := range secrets {
			if _, err := tx.NewUpdate().Model((*CredentialModel)(nil)).
				Set("username_enc = ?", c.Username).
				Set("password_enc = ?", c.Password).
				Where("id = ? AND user_id = ?", c.ID, id).
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	_ = s.LogAction("REKEY_USER", fmt.Sprintf("user_id: %d, credentials: %d", id, len(secrets)))
	return nil
}

// DeleteUser removes a user and cascades to all owned groups, credentials
// and attachments in one transaction.
func (s *bunStore) DeleteUser(id int) (int, error) {
	ctx := context.Background()
	var rows int64
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*AttachmentModel)(nil)).
			Where("credential_id IN (SELECT id FROM credentials WHERE user_id = ?)", id).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*CredentialModel)(nil)).Where("user_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*GroupModel)(nil)).Where("user_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*UserModel)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		rows, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		_ = s.LogAction("DELETE_USER", fmt.Sprintf("user_id: %d", id))
	}
	return int(rows), nil
}

// --- Group methods ---

// AddGroup inserts a new group. iconID 0 means "no icon".
func (s *bunStore) AddGroup(name, description string, iconID, userID int) (int, error) {
	ctx := context.Background()
	m := &GroupModel{Name: name, Description: description, UserID: userID}
	if iconID != 0 {
		m.IconID = sql.NullInt64{Int64: int64(iconID), Valid: true}
	}
	if _, err := s.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	_ = s.LogAction("ADD_GROUP", fmt.Sprintf("group: %s", name))
	return m.ID, nil
}

// GetGroup returns the group with the given id, or (nil, nil).
func (s *bunStore) GetGroup(id int) (*model.Group, error) {
	ctx := context.Background()
	var m GroupModel
	err := s.bun.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	g := groupModelToModel(m)
	return &g, nil
}

// GetGroupsForUser returns all groups owned by a user, sorted by name.
func (s *bunStore) GetGroupsForUser(userID int) ([]model.Group, error) {
	ctx := context.Background()
	var ms []GroupModel
	if err := s.bun.NewSelect().Model(&ms).Where("user_id = ?", userID).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	groups := make([]model.Group, 0, len(ms))
	for _, m := range ms {
		groups = append(groups, groupModelToModel(m))
	}
	return groups, nil
}

// UpdateGroup replaces the mutable fields of a group.
func (s *bunStore) UpdateGroup(g model.Group) error {
	ctx := context.Background()
	iconID := sql.NullInt64{}
	if g.IconID != 0 {
		iconID = sql.NullInt64{Int64: int64(g.IconID), Valid: true}
	}
	_, err := s.bun.NewUpdate().Model((*GroupModel)(nil)).
		Set("name = ?", g.Name).
		Set("description = ?", g.Description).
		Set("icon_id = ?", iconID).
		Where("id = ?", g.ID).
		Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	_ = s.LogAction("UPDATE_GROUP", fmt.Sprintf("group_id: %d, name: '%s'", g.ID, g.Name))
	return nil
}

// DeleteGroup removes a group and cascades to its credentials and their
// attachments in one transaction.
func (s *bunStore) DeleteGroup(id int) (int, error) {
	ctx := context.Background()
	var rows int64
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*AttachmentModel)(nil)).
			Where("credential_id IN (SELECT id FROM credentials WHERE group_id = ?)", id).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*CredentialModel)(nil)).Where("group_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*GroupModel)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		rows, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		_ = s.LogAction("DELETE_GROUP", fmt.Sprintf("group_id: %d", id))
	}
	return int(rows), nil
}

// --- Icon methods ---

// AddIcon inserts a new icon. Duplicate names yield ErrDuplicate; the caller
// decides whether to reuse the existing row.
func (s *bunStore) AddIcon(name string, image []byte) (int, error) {
	ctx := context.Background()
	m := &IconModel{Name: name, Image: image}
	if _, err := s.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	_ = s.LogAction("ADD_ICON", fmt.Sprintf("icon: %s (%d bytes)", name, len(image)))
	return m.ID, nil
}

// GetIcon returns the icon with the given id, or (nil, nil).
func (s *bunStore) GetIcon(id int) (*model.Icon, error) {
	ctx := context.Background()
	var m IconModel
	err := s.bun.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	i := iconModelToModel(m)
	return &i, nil
}

// GetIconByName returns the icon with the given unique name, or (nil, nil).
func (s *bunStore) GetIconByName(name string) (*model.Icon, error) {
	ctx := context.Background()
	var m IconModel
	err := s.bun.NewSelect().Model(&m).Where("name = ?", name).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	i := iconModelToModel(m)
	return &i, nil
}

// GetAllIcons returns every icon, sorted by name.
func (s *bunStore) GetAllIcons() ([]model.Icon, error) {
	ctx := context.Background()
	var ms []IconModel
	if err := s.bun.NewSelect().Model(&ms).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	icons := make([]model.Icon, 0, len(ms))
	for _, m := range ms {
		icons = append(icons, iconModelToModel(m))
	}
	return icons, nil
}

// UpdateIcon replaces an icon's name and image payload.
func (s *bunStore) UpdateIcon(i model.Icon) error {
	ctx := context.Background()
	_, err := s.bun.NewUpdate().Model((*IconModel)(nil)).
		Set("name = ?", i.Name).
		Set("image = ?", i.Image).
		Where("id = ?", i.ID).
		Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	_ = s.LogAction("UPDATE_ICON", fmt.Sprintf("icon_id: %d, name: '%s'", i.ID, i.Name))
	return nil
}

// DeleteIcon removes an icon. Deletion fails closed with ErrIconInUse while
// any group still references the icon.
func (s *bunStore) DeleteIcon(id int) (int, error) {
	ctx := context.Background()
	var rows int64
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		refs, err := tx.NewSelect().Model((*GroupModel)(nil)).Where("icon_id = ?", id).Count(ctx)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrIconInUse
		}
		res, err := tx.NewDelete().Model((*IconModel)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		rows, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		_ = s.LogAction("DELETE_ICON", fmt.Sprintf("icon_id: %d", id))
	}
	return int(rows), nil
}

// --- Credential methods ---

// AddCredential inserts a credential, and its attachment when provided, in
// one transaction: a credential with a half-written attachment must never be
// observable.
func (s *bunStore) AddCredential(c model.Credential, att *model.Attachment) (int, error) {
	ctx := context.Background()
	var id int
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		m := &CredentialModel{
			Title:       c.Title,
			UsernameEnc: c.Username,
			PasswordEnc: c.Password,
			URL:         c.URL,
			Comment:     c.Comment,
			CreatedAt:   c.CreatedAt,
			ModifiedAt:  c.ModifiedAt,
			ExpiresAt:   c.ExpiresAt,
			GroupID:     c.GroupID,
			UserID:      c.UserID,
		}
		if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
			return MapDBError(err)
		}
		id = m.ID
		if att != nil {
			am := &AttachmentModel{CredentialID: id, FileName: att.FileName, Data: att.Data}
			if _, err := tx.NewInsert().Model(am).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	_ = s.LogAction("ADD_CREDENTIAL", fmt.Sprintf("title: '%s'", c.Title))
	return id, nil
}

// GetCredential returns the credential with the given id, or (nil, nil).
func (s *bunStore) GetCredential(id int) (*model.Credential, error) {
	ctx := context.Background()
	var m CredentialModel
	err := s.bun.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c := credentialModelToModel(m)
	return &c, nil
}

// GetCredentialsForUser returns every credential owned by a user, sorted by title.
func (s *bunStore) GetCredentialsForUser(userID int) ([]model.Credential, error) {
	ctx := context.Background()
	var ms []CredentialModel
	if err := s.bun.NewSelect().Model(&ms).Where("user_id = ?", userID).Order("title ASC").Scan(ctx); err != nil {
		return nil, err
	}
	creds := make([]model.Credential, 0, len(ms))
	for _, m := range ms {
		creds = append(creds, credentialModelToModel(m))
	}
	return creds, nil
}

// GetCredentialsForGroup returns a group's credentials, sorted by title.
func (s *bunStore) GetCredentialsForGroup(groupID int) ([]model.Credential, error) {
	ctx := context.Background()
	var ms []CredentialModel
	if err := s.bun.NewSelect().Model(&ms).Where("group_id = ?", groupID).Order("title ASC").Scan(ctx); err != nil {
		return nil, err
	}
	creds := make([]model.Credential, 0, len(ms))
	for _, m := range ms {
		creds = append(creds, credentialModelToModel(m))
	}
	return creds, nil
}

// UpdateCredential replaces all mutable fields of a credential and refreshes
// its modified timestamp (full-row replace semantics).
func (s *bunStore) UpdateCredential(c model.Credential) error {
	ctx := context.Background()
	_, err := s.bun.NewUpdate().Model((*CredentialModel)(nil)).
		Set("title = ?", c.Title).
		Set("username_enc = ?", c.Username).
		Set("password_enc = ?", c.Password).
		Set("url = ?", c.URL).
		Set("comment = ?", c.Comment).
		Set("modified_at = ?", c.ModifiedAt).
		Set("expires_at = ?", c.ExpiresAt).
		Set("group_id = ?", c.GroupID).
		Where("id = ?", c.ID).
		Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	_ = s.LogAction("UPDATE_CREDENTIAL", fmt.Sprintf("credential_id: %d, title: '%s'", c.ID, c.Title))
	return nil
}

// DeleteCredential removes a credential together with its attachments.
func (s *bunStore) DeleteCredential(id int) (int, error) {
	ctx := context.Background()
	var rows int64
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*AttachmentModel)(nil)).Where("credential_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*CredentialModel)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		rows, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		_ = s.LogAction("DELETE_CREDENTIAL", fmt.Sprintf("credential_id: %d", id))
	}
	return int(rows), nil
}

// --- Attachment methods ---

// AddAttachment attaches a file to an existing credential.
func (s *bunStore) AddAttachment(a model.Attachment) (int, error) {
	ctx := context.Background()
	m := &AttachmentModel{CredentialID: a.CredentialID, FileName: a.FileName, Data: a.Data}
	if _, err := s.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	_ = s.LogAction("ADD_ATTACHMENT", fmt.Sprintf("credential_id: %d, file: '%s'", a.CredentialID, a.FileName))
	return m.ID, nil
}

// GetAttachmentForCredential returns the attachment of a credential, or (nil, nil).
func (s *bunStore) GetAttachmentForCredential(credentialID int) (*model.Attachment, error) {
	ctx := context.Background()
	var m AttachmentModel
	err := s.bun.NewSelect().Model(&m).Where("credential_id = ?", credentialID).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	a := attachmentModelToModel(m)
	return &a, nil
}

// DeleteAttachment removes a single attachment by id.
func (s *bunStore) DeleteAttachment(id int) (int, error) {
	ctx := context.Background()
	res, err := s.bun.NewDelete().Model((*AttachmentModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, _ := res.RowsAffected()
	if rows > 0 {
		_ = s.LogAction("DELETE_ATTACHMENT", fmt.Sprintf("attachment_id: %d", id))
	}
	return int(rows), nil
}

// --- Audit Log methods ---

// LogAction records an audit event attributed to the current OS user.
// Details must never contain secret material.
func (s *bunStore) LogAction(action string, details string) error {
	ctx := context.Background()
	curUser, err := user.Current()
	username := "unknown"
	if err == nil {
		if parts := strings.Split(curUser.Username, `\`); len(parts) > 1 {
			username = parts[1]
		} else {
			username = curUser.Username
		}
	}
	m := &AuditLogModel{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Username:  username,
		Action:    action,
		Details:   details,
	}
	_, err = s.bun.NewInsert().Model(m).Exec(ctx)
	return MapDBError(err)
}

// GetAllAuditLogEntries returns the audit trail, newest first.
func (s *bunStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	ctx := context.Background()
	var ms []AuditLogModel
	if err := s.bun.NewSelect().Model(&ms).Order("id DESC").Scan(ctx); err != nil {
		return nil, err
	}
	entries := make([]model.AuditLogEntry, 0, len(ms))
	for _, m := range ms {
		entries = append(entries, model.AuditLogEntry{
			ID: m.ID, Timestamp: m.Timestamp, Username: m.Username, Action: m.Action, Details: m.Details,
		})
	}
	return entries, nil
}
