package boltdb

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/repository"
)

type userRepository struct {
	store *Store
}

// NewUserRepository instantiates a BoltDB-backed user repository.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := r.store.db.View(func(tx *bolt.Tx) error {
		var err error
		user, err = getUser(tx, id)
		return err
	})
	return user, err
}

func (r *userRepository) List(_ context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0)
	err := r.store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(usersBucket).ForEach(func(_, v []byte) error {
			var user domain.User
			if err := json.Unmarshal(v, &user); err != nil {
				return err
			}
			users = append(users, user)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
	return users, nil
}

func (r *userRepository) Upsert(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if !user.Role.Valid() {
		return domain.Invalid("`%s` is not a valid role", user.Role)
	}

	return r.store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(usersBucket)

		conflict := false
		if err := bucket.ForEach(func(k, v []byte) error {
			var other domain.User
			if err := json.Unmarshal(v, &other); err != nil {
				return err
			}
			if string(k) != user.ID && strings.EqualFold(other.Email, user.Email) {
				conflict = true
			}
			return nil
		}); err != nil {
			return err
		}
		if conflict {
			return domain.Invalid("email %s is already in use", user.Email)
		}

		now := time.Now()
		if existing, err := getUser(tx, user.ID); err == nil {
			user.CreatedAt = existing.CreatedAt
		} else if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		user.UpdatedAt = now

		payload, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(user.ID), payload)
	})
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	return r.store.db.Update(func(tx *bolt.Tx) error {
		if !userExists(tx, id) {
			return domain.ErrUserNotFound
		}

		referenced := false
		if err := tx.Bucket(tasksBucket).ForEach(func(_, v []byte) error {
			var rec taskRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.AssignedTo == id || rec.CreatedBy == id {
				referenced = true
			}
			return nil
		}); err != nil {
			return err
		}
		if referenced {
			return domain.Invalid("user still has tasks")
		}
		return tx.Bucket(usersBucket).Delete([]byte(id))
	})
}

func getUser(tx *bolt.Tx, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrUserNotFound
	}
	raw := tx.Bucket(usersBucket).Get([]byte(id))
	if raw == nil {
		return nil, domain.ErrUserNotFound
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func userExists(tx *bolt.Tx, id string) bool {
	return id != "" && tx.Bucket(usersBucket).Get([]byte(id)) != nil
}
