package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/shoplist/internal/logging"
	"github.com/JonMunkholm/shoplist/internal/storage"
)

var (
	ErrUserLimit    = errors.New("user limit reached")
	ErrUserExists   = errors.New("user already exists")
	ErrReservedName = errors.New("user name is reserved")
	ErrInvalidUser  = errors.New("user name is required")
)

// User is a registered, non-administrator identity.
type User struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Users returns the registered users sorted by name.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].Username) < strings.ToLower(users[j].Username)
	})
	return users, nil
}

// IsRegistered reports whether name matches a registered user, ignoring case.
func (s *Service) IsRegistered(ctx context.Context, name string) (bool, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return false, err
	}
	return indexUser(users, name) >= 0, nil
}

// Login resolves name to an identity. Administrators are always accepted;
// anyone else must be registered and gets the registered spelling of the
// name, so every login of a user shares one list.
func (s *Service) Login(ctx context.Context, name string) (Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Identity{}, ErrInvalidUser
	}
	if s.isAdmin(name) {
		return s.Identify(name), nil
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return Identity{}, err
	}
	i := indexUser(users, name)
	if i < 0 {
		return Identity{}, ErrUnknownUser
	}
	return s.Identify(users[i].Username), nil
}

// AddUser registers name. Administrator names and the anonymous name are
// reserved and names are unique regardless of case.
func (s *Service) AddUser(ctx context.Context, actor Identity, name string) (User, error) {
	if !actor.Can(CapManageUsers) {
		return User{}, ErrForbidden
	}
	name, err := s.validUserName(name)
	if err != nil {
		return User{}, err
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return User{}, err
	}
	if indexUser(users, name) >= 0 {
		return User{}, ErrUserExists
	}
	if len(users) >= s.opts.MaxUsers {
		return User{}, fmt.Errorf("%w: at most %d users", ErrUserLimit, s.opts.MaxUsers)
	}

	u := User{Username: name, CreatedAt: time.Now().UTC()}
	if err := s.saveUsers(ctx, append(users, u)); err != nil {
		return User{}, err
	}
	logging.FromContext(ctx).Info("user registered", "user", name, "by", actor.Name)
	return u, nil
}

// RenameUser changes a user's name and moves their list to the new key.
func (s *Service) RenameUser(ctx context.Context, actor Identity, oldName, newName string) (User, error) {
	if !actor.Can(CapManageUsers) {
		return User{}, ErrForbidden
	}
	newName, err := s.validUserName(newName)
	if err != nil {
		return User{}, err
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return User{}, err
	}
	i := indexUser(users, oldName)
	if i < 0 {
		return User{}, ErrUnknownUser
	}
	if j := indexUser(users, newName); j >= 0 && j != i {
		return User{}, ErrUserExists
	}

	old := s.Identify(users[i].Username)
	renamed := s.Identify(newName)
	if old.SnapshotKey() != renamed.SnapshotKey() {
		if err := s.moveSnapshot(ctx, old, renamed); err != nil {
			return User{}, err
		}
	}

	users[i].Username = newName
	if err := s.saveUsers(ctx, users); err != nil {
		return User{}, err
	}
	s.Close(old)
	logging.FromContext(ctx).Info("user renamed", "from", old.Name, "to", newName, "by", actor.Name)
	return users[i], nil
}

// DeleteUser unregisters name and purges their list.
func (s *Service) DeleteUser(ctx context.Context, actor Identity, name string) error {
	if !actor.Can(CapManageUsers) {
		return ErrForbidden
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	i := indexUser(users, name)
	if i < 0 {
		return ErrUnknownUser
	}
	id := s.Identify(users[i].Username)

	users = append(users[:i], users[i+1:]...)
	if err := s.saveUsers(ctx, users); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id.SnapshotKey()); err != nil {
		return fmt.Errorf("purge list of %q: %w", id.Name, err)
	}
	s.Close(id)
	logging.FromContext(ctx).Info("user deleted", "user", id.Name, "by", actor.Name)
	return nil
}

func (s *Service) validUserName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidUser
	}
	if s.isAdmin(name) || strings.EqualFold(name, AnonymousName) {
		return "", ErrReservedName
	}
	return name, nil
}

func (s *Service) moveSnapshot(ctx context.Context, from, to Identity) error {
	data, err := s.store.Get(ctx, from.SnapshotKey())
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load list of %q: %w", from.Name, err)
	}
	if err := s.store.Put(ctx, to.SnapshotKey(), data); err != nil {
		return fmt.Errorf("persist snapshot %q: %w", to.SnapshotKey(), err)
	}
	if err := s.store.Delete(ctx, from.SnapshotKey()); err != nil {
		return fmt.Errorf("purge list of %q: %w", from.Name, err)
	}
	return nil
}

func (s *Service) loadUsers(ctx context.Context) ([]User, error) {
	data, err := s.store.Get(ctx, UsersKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *Service) saveUsers(ctx context.Context, users []User) error {
	if users == nil {
		users = []User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := s.store.Put(ctx, UsersKey, data); err != nil {
		return fmt.Errorf("persist snapshot %q: %w", UsersKey, err)
	}
	return nil
}

func indexUser(users []User, name string) int {
	name = strings.TrimSpace(name)
	for i, u := range users {
		if strings.EqualFold(u.Username, name) {
			return i
		}
	}
	return -1
}
