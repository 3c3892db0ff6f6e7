// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/passkeep/passkeep/internal/model"
	"github.com/uptrace/bun"
)

// backupSchemaVersion identifies the backup layout; bump on breaking changes.
const backupSchemaVersion = 1

// Backuper is implemented by stores that support full vault export/import.
type Backuper interface {
	ExportBackup(w io.Writer) error
	ImportBackup(r io.Reader) error
}

// ExportBackup writes a zstd-compressed JSON snapshot of every table to w.
// Secret columns are exported as stored, i.e. still encrypted under the
// owning user's key.
func (s *bunStore) ExportBackup(w io.Writer) error {
	ctx := context.Background()
	backup := &model.BackupData{SchemaVersion: backupSchemaVersion}

	err := s.bun.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		var users []UserModel
		if err := tx.NewSelect().Model(&users).Order("id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, m := range users {
			backup.Users = append(backup.Users, userModelToModel(m))
		}

		var icons []IconModel
		if err := tx.NewSelect().Model(&icons).Order("id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, m := range icons {
			backup.Icons = append(backup.Icons, iconModelToModel(m))
		}

		var groups []GroupModel
		if err := tx.NewSelect().Model(&groups).Order("id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, m := range groups {
			backup.Groups = append(backup.Groups, groupModelToModel(m))
		}

		var creds []CredentialModel
		if err := tx.NewSelect().Model(&creds).Order("id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, m := range creds {
			backup.Credentials = append(backup.Credentials, credentialModelToModel(m))
		}

		var atts []AttachmentModel
		if err := tx.NewSelect().Model(&atts).Order("id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, m := range atts {
			backup.Attachments = append(backup.Attachments, attachmentModelToModel(m))
		}

		var audit []AuditLogModel
		if err := tx.NewSelect().Model(&audit).Order("id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, m := range audit {
			backup.AuditLog = append(backup.AuditLog, model.AuditLogEntry{
				ID: m.ID, Timestamp: m.Timestamp, Username: m.Username, Action: m.Action, Details: m.Details,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to export backup data: %w", err)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(backup); err != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish backup stream: %w", err)
	}
	_ = s.LogAction("EXPORT_BACKUP", fmt.Sprintf("users: %d, credentials: %d", len(backup.Users), len(backup.Credentials)))
	return nil
}

// ImportBackup restores a snapshot produced by ExportBackup, replacing all
// current table contents in a single transaction. Row ids are preserved so
// foreign keys stay intact.
func (s *bunStore) ImportBackup(r io.Reader) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var backup model.BackupData
	if err := json.NewDecoder(zr).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.SchemaVersion != backupSchemaVersion {
		return fmt.Errorf("unsupported backup schema version %d", backup.SchemaVersion)
	}

	ctx := context.Background()
	err = s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Child tables first so engine-side FK checks never trip.
		for _, table := range []interface{}{
			(*AttachmentModel)(nil), (*CredentialModel)(nil), (*GroupModel)(nil),
			(*IconModel)(nil), (*UserModel)(nil), (*AuditLogModel)(nil),
		} {
			if _, err := tx.NewDelete().Model(table).Where("1 = 1").Exec(ctx); err != nil {
				return err
			}
		}

		for _, u := range backup.Users {
			m := &UserModel{ID: u.ID, Username: u.Username, Salt: u.Salt, KeyCheck: u.KeyCheck, CreatedAt: u.CreatedAt}
			if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
				return err
			}
		}
		for _, i := range backup.Icons {
			m := &IconModel{ID: i.ID, Name: i.Name, Image: i.Image}
			if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
				return err
			}
		}
		for _, g := range backup.Groups {
			m := &GroupModel{ID: g.ID, Name: g.Name, Description: g.Description, UserID: g.UserID}
			if g.IconID != 0 {
				m.IconID = sql.NullInt64{Int64: int64(g.IconID), Valid: true}
			}
			if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
				return err
			}
		}
		for _, c := range backup.Credentials {
			m := &CredentialModel{
				ID: c.ID, Title: c.Title, UsernameEnc: c.Username, PasswordEnc: c.Password,
				URL: c.URL, Comment: c.Comment, CreatedAt: c.CreatedAt, ModifiedAt: c.ModifiedAt,
				ExpiresAt: c.ExpiresAt, GroupID: c.GroupID, UserID: c.UserID,
			}
			if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
				return err
			}
		}
		for _, a := range backup.Attachments {
			m := &AttachmentModel{ID: a.ID, CredentialID: a.CredentialID, FileName: a.FileName, Data: a.Data}
			if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
				return err
			}
		}
		for _, e := range backup.AuditLog {
			m := &AuditLogModel{ID: e.ID, Timestamp: e.Timestamp, Username: e.Username, Action: e.Action, Details: e.Details}
			if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to import backup: %w", err)
	}
	_ = s.LogAction("IMPORT_BACKUP", fmt.Sprintf("restored at %s", time.Now().UTC().Format(time.RFC3339)))
	return nil
}
