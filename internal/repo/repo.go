package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"bunnyfocus/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrCorruptProfile   = errors.New("corrupt profile record")
	ErrInvalidProfileID = errors.New("invalid profile id")
)

var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Store persists whole profile records.
type Store interface {
	// Load returns the profile, creating and saving a default one if none exists.
	Load(ctx context.Context, id string) (models.Profile, error)
	Save(ctx context.Context, id string, p models.Profile) error
	// Update runs fn on the current profile while holding the profile's
	// write lock and saves the result. Nothing is saved if fn fails.
	Update(ctx context.Context, id string, fn func(*models.Profile) error) (models.Profile, error)
}

// backend stores encoded records. get returns ErrNotFound for missing ids.
type backend interface {
	get(ctx context.Context, id string) ([]byte, error)
	put(ctx context.Context, id string, data []byte) error
}

// atomicBackend can run a read-modify-write inside its own transaction.
type atomicBackend interface {
	backend
	modify(ctx context.Context, id string, fn func(data []byte, found bool) ([]byte, error)) error
}

// creatingBackend can insert a record only when the id has none, so a
// default never replaces a record written by another process.
type creatingBackend interface {
	backend
	create(ctx context.Context, id string, data []byte) error
}

// Repo implements Store on top of a backend, serializing access per profile id.
type Repo struct {
	backend backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRepo(b backend) *Repo {
	return &Repo{backend: b, locks: make(map[string]*sync.Mutex)}
}

func (r *Repo) lock(id string) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	r.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (r *Repo) Load(ctx context.Context, id string) (models.Profile, error) {
	if !profileIDPattern.MatchString(id) {
		return models.Profile{}, ErrInvalidProfileID
	}
	unlock := r.lock(id)
	defer unlock()

	data, err := r.backend.get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return r.createDefault(ctx, id)
	}
	if err != nil {
		return models.Profile{}, err
	}
	return decode(data)
}

func (r *Repo) createDefault(ctx context.Context, id string) (models.Profile, error) {
	p := models.NewProfile()
	cb, ok := r.backend.(creatingBackend)
	if !ok {
		if err := r.put(ctx, id, p); err != nil {
			return models.Profile{}, err
		}
		return p, nil
	}
	data, err := encode(p)
	if err != nil {
		return models.Profile{}, err
	}
	if err := cb.create(ctx, id, data); err != nil {
		return models.Profile{}, err
	}
	// Another process may have written the record first.
	data, err = r.backend.get(ctx, id)
	if err != nil {
		return models.Profile{}, err
	}
	return decode(data)
}

func (r *Repo) Save(ctx context.Context, id string, p models.Profile) error {
	if !profileIDPattern.MatchString(id) {
		return ErrInvalidProfileID
	}
	unlock := r.lock(id)
	defer unlock()
	return r.put(ctx, id, p)
}

func (r *Repo) Update(ctx context.Context, id string, fn func(*models.Profile) error) (models.Profile, error) {
	if !profileIDPattern.MatchString(id) {
		return models.Profile{}, ErrInvalidProfileID
	}
	unlock := r.lock(id)
	defer unlock()

	var result models.Profile
	apply := func(data []byte, found bool) ([]byte, error) {
		p := models.NewProfile()
		if found {
			var err error
			if p, err = decode(data); err != nil {
				return nil, err
			}
		}
		if err := fn(&p); err != nil {
			return nil, err
		}
		result = p.Normalize()
		return encode(result)
	}

	if ab, ok := r.backend.(atomicBackend); ok {
		if err := ab.modify(ctx, id, apply); err != nil {
			return models.Profile{}, err
		}
		return result, nil
	}

	data, err := r.backend.get(ctx, id)
	found := true
	if errors.Is(err, ErrNotFound) {
		found = false
	} else if err != nil {
		return models.Profile{}, err
	}
	out, err := apply(data, found)
	if err != nil {
		return models.Profile{}, err
	}
	if err := r.backend.put(ctx, id, out); err != nil {
		return models.Profile{}, err
	}
	return result, nil
}

func (r *Repo) put(ctx context.Context, id string, p models.Profile) error {
	data, err := encode(p.Normalize())
	if err != nil {
		return err
	}
	return r.backend.put(ctx, id, data)
}

func encode(p models.Profile) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return data, nil
}

func decode(data []byte) (models.Profile, error) {
	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return models.Profile{}, fmt.Errorf("%w: %v", ErrCorruptProfile, err)
	}
	return p.Normalize(), nil
}
