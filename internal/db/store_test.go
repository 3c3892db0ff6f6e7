// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/passkeep/passkeep/internal/model"
)

func TestUserCRUDAndDuplicate(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		id, err := s.AddUser("alice", []byte("salt"), []byte("check"))
		if err != nil {
			t.Fatalf("AddUser failed: %v", err)
		}
		if id == 0 {
			t.Fatalf("expected nonzero user id")
		}

		u, err := s.GetUserByUsername("alice")
		if err != nil {
			t.Fatalf("GetUserByUsername failed: %v", err)
		}
		if u == nil || u.ID != id {
			t.Fatalf("expected user alice with id %d, got %+v", id, u)
		}
		if !bytes.Equal(u.Salt, []byte("salt")) || !bytes.Equal(u.KeyCheck, []byte("check")) {
			t.Fatalf("key material not stored verbatim")
		}

		if _, err := s.AddUser("alice", []byte("s2"), []byte("c2")); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for duplicate username, got: %v", err)
		}

		missing, err := s.GetUserByUsername("nobody")
		if err != nil || missing != nil {
			t.Fatalf("expected (nil, nil) for missing user, got (%+v, %v)", missing, err)
		}
	})
}

func TestDeleteUserCascades(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		uid, err := s.AddUser("bob", []byte("s"), []byte("c"))
		if err != nil {
			t.Fatalf("AddUser failed: %v", err)
		}
		gid, err := s.AddGroup("Work", "", 0, uid)
		if err != nil {
			t.Fatalf("AddGroup failed: %v", err)
		}
		cid, err := s.AddCredential(model.Credential{
			Title: "Mail", Username: []byte("u-ct"), Password: []byte("p-ct"),
			CreatedAt: time.Now(), ModifiedAt: time.Now(), GroupID: gid, UserID: uid,
		}, &model.Attachment{FileName: "note.txt", Data: []byte("hi")})
		if err != nil {
			t.Fatalf("AddCredential failed: %v", err)
		}

		rows, err := s.DeleteUser(uid)
		if err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		if rows != 1 {
			t.Fatalf("expected 1 deleted user, got %d", rows)
		}

		if g, _ := s.GetGroup(gid); g != nil {
			t.Fatalf("group survived user delete")
		}
		if c, _ := s.GetCredential(cid); c != nil {
			t.Fatalf("credential survived user delete")
		}
		if a, _ := s.GetAttachmentForCredential(cid); a != nil {
			t.Fatalf("attachment survived user delete")
		}

		// Deleting again is a no-op, not an error.
		rows, err = s.DeleteUser(uid)
		if err != nil || rows != 0 {
			t.Fatalf("expected (0, nil) for second delete, got (%d, %v)", rows, err)
		}
	})
}

func TestDeleteGroupCascades(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		uid, _ := s.AddUser("carol", []byte("s"), []byte("c"))
		gid, err := s.AddGroup("Banking", "money stuff", 0, uid)
		if err != nil {
			t.Fatalf("AddGroup failed: %v", err)
		}
		cid, err := s.AddCredential(model.Credential{
			Title: "MyBank", Username: []byte("u-ct"), Password: []byte("p-ct"),
			CreatedAt: time.Now(), ModifiedAt: time.Now(), GroupID: gid, UserID: uid,
		}, nil)
		if err != nil {
			t.Fatalf("AddCredential failed: %v", err)
		}
		if _, err := s.AddAttachment(model.Attachment{CredentialID: cid, FileName: "scan.pdf", Data: []byte("pdf")}); err != nil {
			t.Fatalf("AddAttachment failed: %v", err)
		}

		rows, err := s.DeleteGroup(gid)
		if err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if rows != 1 {
			t.Fatalf("expected 1 deleted group, got %d", rows)
		}
		if c, _ := s.GetCredential(cid); c != nil {
			t.Fatalf("credential survived group delete")
		}
		if a, _ := s.GetAttachmentForCredential(cid); a != nil {
			t.Fatalf("attachment survived group delete")
		}
		// The owner is untouched.
		if u, _ := s.GetUserByID(uid); u == nil {
			t.Fatalf("user vanished with group delete")
		}
	})
}

func TestGroupsSortedByName(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		uid, _ := s.AddUser("dave", []byte("s"), []byte("c"))
		for _, name := range []string{"zeta", "alpha", "mid"} {
			if _, err := s.AddGroup(name, "", 0, uid); err != nil {
				t.Fatalf("AddGroup(%s) failed: %v", name, err)
			}
		}
		groups, err := s.GetGroupsForUser(uid)
		if err != nil {
			t.Fatalf("GetGroupsForUser failed: %v", err)
		}
		if len(groups) != 3 {
			t.Fatalf("expected 3 groups, got %d", len(groups))
		}
		want := []string{"alpha", "mid", "zeta"}
		for i, g := range groups {
			if g.Name != want[i] {
				t.Fatalf("groups out of order: got %v", groups)
			}
		}
	})
}

func TestIconUniqueNameAndInUse(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		uid, _ := s.AddUser("erin", []byte("s"), []byte("c"))
		iconID, err := s.AddIcon("bank", []byte{0x89, 0x50})
		if err != nil {
			t.Fatalf("AddIcon failed: %v", err)
		}
		if _, err := s.AddIcon("bank", []byte{0x01}); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for duplicate icon name, got: %v", err)
		}

		byName, err := s.GetIconByName("bank")
		if err != nil || byName == nil || byName.ID != iconID {
			t.Fatalf("GetIconByName mismatch: (%+v, %v)", byName, err)
		}

		gid, err := s.AddGroup("Banking", "", iconID, uid)
		if err != nil {
			t.Fatalf("AddGroup with icon failed: %v", err)
		}

		if _, err := s.DeleteIcon(iconID); !errors.Is(err, ErrIconInUse) {
			t.Fatalf("expected ErrIconInUse while referenced, got: %v", err)
		}

		if _, err := s.DeleteGroup(gid); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		rows, err := s.DeleteIcon(iconID)
		if err != nil || rows != 1 {
			t.Fatalf("expected icon delete to succeed after group delete, got (%d, %v)", rows, err)
		}
	})
}

func TestIconSharedByTwoGroups(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		uid, _ := s.AddUser("frank", []byte("s"), []byte("c"))
		iconID, _ := s.AddIcon("shared", []byte{0x01})
		g1, _ := s.AddGroup("One", "", iconID, uid)
		if _, err := s.AddGroup("Two", "", iconID, uid); err != nil {
			t.Fatalf("second group with same icon failed: %v", err)
		}
		// Still referenced by group Two after One goes away.
		if _, err := s.DeleteGroup(g1); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := s.DeleteIcon(iconID); !errors.Is(err, ErrIconInUse) {
			t.Fatalf("expected ErrIconInUse with one reference left, got: %v", err)
		}
	})
}

func TestCredentialUpdateAndDelete(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		uid, _ := s.AddUser("gina", []byte("s"), []byte("c"))
		gid, _ := s.AddGroup("Web", "", 0, uid)
		created := time.Now().UTC().Truncate(time.Second)
		cid, err := s.AddCredential(model.Credential{
			Title: "Forum", Username: []byte("u1"), Password: []byte("p1"),
			URL: "https://forum.example", CreatedAt: created, ModifiedAt: created,
			GroupID: gid, UserID: uid,
		}, nil)
		if err != nil {
			t.Fatalf("AddCredential failed: %v", err)
		}

		expires := created.Add(24 * time.Hour)
		update := model.Credential{
			ID: cid, Title: "Forum2", Username: []byte("u2"), Password: []byte("p2"),
			URL: "https://forum2.example", Comment: "renamed",
			ModifiedAt: created.Add(time.Minute), ExpiresAt: &expires,
			GroupID: gid, UserID: uid,
		}
		if err := s.UpdateCredential(update); err != nil {
			t.Fatalf("UpdateCredential failed: %v", err)
		}

		got, err := s.GetCredential(cid)
		if err != nil || got == nil {
			t.Fatalf("GetCredential failed: (%+v, %v)", got, err)
		}
		if got.Title != "Forum2" || !bytes.Equal(got.Password, []byte("p2")) || got.Comment != "renamed" {
			t.Fatalf("update not persisted: %+v", got)
		}
		if got.ExpiresAt == nil {
			t.Fatalf("expiry not persisted")
		}

		rows, err := s.DeleteCredential(cid)
		if err != nil || rows != 1 {
			t.Fatalf("DeleteCredential got (%d, %v)", rows, err)
		}
		rows, err = s.DeleteCredential(cid)
		if err != nil || rows != 0 {
			t.Fatalf("expected (0, nil) deleting missing credential, got (%d, %v)", rows, err)
		}
	})
}

func TestRekeyUserSwapsSecretsAtomically(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		uid, _ := s.AddUser("henry", []byte("old-salt"), []byte("old-check"))
		gid, _ := s.AddGroup("G", "", 0, uid)
		cid, _ := s.AddCredential(model.Credential{
			Title: "A", Username: []byte("old-u"), Password: []byte("old-p"),
			CreatedAt: time.Now(), ModifiedAt: time.Now(), GroupID: gid, UserID: uid,
		}, nil)

		err := s.RekeyUser(uid, []byte("new-salt"), []byte("new-check"), []model.CredentialSecrets{
			{ID: cid, Username: []byte("new-u"), Password: []byte("new-p")},
		})
		if err != nil {
			t.Fatalf("RekeyUser failed: %v", err)
		}

		u, _ := s.GetUserByID(uid)
		if !bytes.Equal(u.Salt, []byte("new-salt")) || !bytes.Equal(u.KeyCheck, []byte("new-check")) {
			t.Fatalf("key material not swapped: %+v", u)
		}
		c, _ := s.GetCredential(cid)
		if !bytes.Equal(c.Username, []byte("new-u")) || !bytes.Equal(c.Password, []byte("new-p")) {
			t.Fatalf("credential secrets not swapped: %+v", c)
		}

		// Unknown user id must not silently succeed.
		if err := s.RekeyUser(99999, []byte("x"), []byte("y"), nil); err == nil {
			t.Fatalf("expected error rekeying unknown user")
		}
	})
}

func TestAuditTrailRecordsMutations(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		uid, _ := s.AddUser("iris", []byte("s"), []byte("c"))
		gid, _ := s.AddGroup("G", "", 0, uid)
		if _, err := s.DeleteGroup(gid); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}

		entries, err := s.GetAllAuditLogEntries()
		if err != nil {
			t.Fatalf("GetAllAuditLogEntries failed: %v", err)
		}
		actions := map[string]bool{}
		for _, e := range entries {
			actions[e.Action] = true
			if e.Username == "" || e.Timestamp == "" {
				t.Fatalf("audit entry missing attribution: %+v", e)
			}
		}
		for _, want := range []string{"ADD_USER", "ADD_GROUP", "DELETE_GROUP"} {
			if !actions[want] {
				t.Fatalf("missing audit action %s in %v", want, actions)
			}
		}
		// Newest first.
		if len(entries) >= 2 && entries[0].ID < entries[1].ID {
			t.Fatalf("audit entries not ordered newest first")
		}
	})
}

func TestAttachmentLifecycle(t *testing.T) {
	WithTestStore(t, func(s *SqliteStore) {
		uid, _ := s.AddUser("judy", []byte("s"), []byte("c"))
		gid, _ := s.AddGroup("G", "", 0, uid)
		cid, _ := s.AddCredential(model.Credential{
			Title: "T", Username: []byte("u"), Password: []byte("p"),
			CreatedAt: time.Now(), ModifiedAt: time.Now(), GroupID: gid, UserID: uid,
		}, nil)

		aid, err := s.AddAttachment(model.Attachment{CredentialID: cid, FileName: "key.pem", Data: []byte("pem")})
		if err != nil {
			t.Fatalf("AddAttachment failed: %v", err)
		}
		got, err := s.GetAttachmentForCredential(cid)
		if err != nil || got == nil || got.FileName != "key.pem" {
			t.Fatalf("GetAttachmentForCredential mismatch: (%+v, %v)", got, err)
		}
		rows, err := s.DeleteAttachment(aid)
		if err != nil || rows != 1 {
			t.Fatalf("DeleteAttachment got (%d, %v)", rows, err)
		}
		if a, _ := s.GetAttachmentForCredential(cid); a != nil {
			t.Fatalf("attachment still present after delete")
		}
	})
}
