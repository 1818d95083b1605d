package users

import (
	"context"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/filestore"
)

// FileStore keeps users in a JSON array.
type FileStore struct {
	doc *filestore.Document[[]User]
}

func NewFileStore(path string) *FileStore {
	return &FileStore{doc: filestore.New(path, func() []User { return []User{} })}
}

// Create appends user unless the username or email is already taken. The
// check and the write happen under the same document lock.
func (s *FileStore) Create(ctx context.Context, user User) error {
	return s.doc.Update(ctx, func(all *[]User) error {
		for _, existing := range *all {
			if existing.Username == user.Username || strings.EqualFold(existing.Email, user.Email) {
				return pkgerrors.New(pkgerrors.CodeConflict, "User already exists")
			}
		}
		*all = append(*all, user)
		return nil
	})
}

// FindByUsername returns the user or a NOT_FOUND error.
func (s *FileStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	all, err := s.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Username == username {
			user := all[i]
			return &user, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

// UpdatePassword replaces the stored password for id.
func (s *FileStore) UpdatePassword(ctx context.Context, id, password string) error {
	return s.doc.Update(ctx, func(all *[]User) error {
		for i := range *all {
			if (*all)[i].ID == id {
				(*all)[i].Password = password
				return nil
			}
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	})
}
