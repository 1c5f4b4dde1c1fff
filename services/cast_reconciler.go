package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/princinho/moviecatalog/models"
)

// CastInput describes one desired cast member: either an existing person
// (ID set) or a new person to create (Name set, ImageURL optional).
type CastInput struct {
	ID       string
	Name     string
	ImageURL string
	Role     string
}

// CastDiff lists, per role, the people gaining and losing a movie reference.
type CastDiff struct {
	Added   map[models.Role][]string
	Removed map[models.Role][]string
}

func (d CastDiff) Empty() bool {
	for _, role := range models.Roles {
		if len(d.Added[role]) > 0 || len(d.Removed[role]) > 0 {
			return false
		}
	}
	return true
}

// Reconciliation is the outcome of a successful Reconcile.
type Reconciliation struct {
	Cast       []models.CastEntry
	CreatedIDs map[models.Role][]string
	Diff       CastDiff
}

// PersistCastFunc writes the movie document carrying the normalised cast.
type PersistCastFunc func(ctx context.Context, cast []models.CastEntry) error

// CastReconciler keeps movie casts and the people back-references in step.
type CastReconciler struct {
	people PeopleStores
	newID  func() string
}

func NewCastReconciler(people PeopleStores) *CastReconciler {
	return &CastReconciler{people: people, newID: uuid.NewString}
}

// ValidateCast checks every descriptor and the producer rule without any
// storage access. It returns the parsed role of each descriptor.
func ValidateCast(desired []CastInput) ([]models.Role, error) {
	roles := make([]models.Role, len(desired))
	producers := 0
	for i, in := range desired {
		role, err := models.ParseRole(strings.TrimSpace(in.Role))
		if err != nil {
			return nil, fmt.Errorf("%w: cast[%d] has role %q", ErrInvalidRole, i, in.Role)
		}
		if strings.TrimSpace(in.ID) == "" && strings.TrimSpace(in.Name) == "" {
			return nil, fmt.Errorf("%w: cast[%d] needs an id or a name", ErrValidation, i)
		}
		if role == models.RoleProducer {
			producers++
		}
		roles[i] = role
	}
	if producers != 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrProducerCount, producers)
	}
	return roles, nil
}

// Reconcile materialises new people, normalises the cast, persists the movie
// through persist and finally moves the back-references from prior to the
// new cast. For a new movie prior is empty, so every member gains a reference.
//
// Nothing is written when validation or the existence check of referenced
// people fails. Run it inside a Transactor to make the writes atomic.
func (r *CastReconciler) Reconcile(ctx context.Context, movieID string, prior []models.CastEntry, desired []CastInput, persist PersistCastFunc) (*Reconciliation, error) {
	roles, err := ValidateCast(desired)
	if err != nil {
		return nil, err
	}
	if err := r.checkExisting(ctx, desired, roles); err != nil {
		return nil, err
	}

	cast, created, err := r.normalise(ctx, prior, desired, roles)
	if err != nil {
		return nil, err
	}

	if err := persist(ctx, cast); err != nil {
		return nil, err
	}

	diff := DiffCast(prior, cast)
	if err := r.link(ctx, movieID, diff); err != nil {
		return nil, err
	}

	return &Reconciliation{Cast: cast, CreatedIDs: created, Diff: diff}, nil
}

// checkExisting verifies that every referenced id exists in its role's collection.
func (r *CastReconciler) checkExisting(ctx context.Context, desired []CastInput, roles []models.Role) error {
	wanted := make(map[models.Role][]string)
	seen := make(map[string]bool)
	for i, in := range desired {
		id := strings.TrimSpace(in.ID)
		if id == "" || seen[string(roles[i])+":"+id] {
			continue
		}
		seen[string(roles[i])+":"+id] = true
		wanted[roles[i]] = append(wanted[roles[i]], id)
	}

	for _, role := range models.Roles {
		ids := wanted[role]
		if len(ids) == 0 {
			continue
		}
		store, err := r.people.For(role)
		if err != nil {
			return err
		}
		found, err := store.FindByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("lookup %ss: %w", role, err)
		}
		if len(found) == len(ids) {
			continue
		}
		present := make(map[string]bool, len(found))
		for _, p := range found {
			present[p.ID] = true
		}
		for _, id := range ids {
			if !present[id] {
				return fmt.Errorf("%w: %s %s", ErrPersonNotFound, role, id)
			}
		}
	}
	return nil
}

// normalise creates the new people and returns the cast in input order.
// Repeated (person, role) pairs collapse into one entry, and entries already
// on the prior cast keep their entry id.
func (r *CastReconciler) normalise(ctx context.Context, prior []models.CastEntry, desired []CastInput, roles []models.Role) ([]models.CastEntry, map[models.Role][]string, error) {
	priorEntryIDs := make(map[castKey]string, len(prior))
	for _, e := range prior {
		priorEntryIDs[castKey{e.Role, e.PersonID}] = e.ID
	}

	created := make(map[models.Role][]string)
	createdByName := make(map[string]string)
	seen := make(map[castKey]bool, len(desired))
	cast := make([]models.CastEntry, 0, len(desired))

	for i, in := range desired {
		role := roles[i]
		personID := strings.TrimSpace(in.ID)

		if personID == "" {
			name := strings.TrimSpace(in.Name)
			nameKey := string(role) + ":" + strings.ToLower(name)
			if id, ok := createdByName[nameKey]; ok {
				personID = id
			} else {
				store, err := r.people.For(role)
				if err != nil {
					return nil, nil, err
				}
				p := &models.Person{
					ID:       r.newID(),
					Name:     name,
					ImageURL: strings.TrimSpace(in.ImageURL),
					Movies:   []string{},
				}
				if err := store.Insert(ctx, p); err != nil {
					return nil, nil, fmt.Errorf("create %s %q: %w", role, name, err)
				}
				personID = p.ID
				createdByName[nameKey] = p.ID
				created[role] = append(created[role], p.ID)
			}
		}

		key := castKey{role, personID}
		if seen[key] {
			continue
		}
		seen[key] = true

		entryID := priorEntryIDs[key]
		if entryID == "" {
			entryID = r.newID()
		}
		cast = append(cast, models.CastEntry{ID: entryID, PersonID: personID, Role: role})
	}
	return cast, created, nil
}

func (r *CastReconciler) link(ctx context.Context, movieID string, diff CastDiff) error {
	for _, role := range models.Roles {
		removed, added := diff.Removed[role], diff.Added[role]
		if len(removed) == 0 && len(added) == 0 {
			continue
		}
		store, err := r.people.For(role)
		if err != nil {
			return err
		}
		if err := store.PullMovie(ctx, removed, movieID); err != nil {
			return fmt.Errorf("unlink %ss from movie %s: %w", role, movieID, err)
		}
		if err := store.AddMovie(ctx, added, movieID); err != nil {
			return fmt.Errorf("link %ss to movie %s: %w", role, movieID, err)
		}
	}
	return nil
}

type castKey struct {
	role     models.Role
	personID string
}

// DiffCast compares two casts by (role, person id). People on both sides
// appear in neither list.
func DiffCast(prior, next []models.CastEntry) CastDiff {
	before := make(map[castKey]bool, len(prior))
	for _, e := range prior {
		before[castKey{e.Role, e.PersonID}] = true
	}
	after := make(map[castKey]bool, len(next))
	for _, e := range next {
		after[castKey{e.Role, e.PersonID}] = true
	}

	diff := CastDiff{Added: map[models.Role][]string{}, Removed: map[models.Role][]string{}}
	for _, e := range next {
		k := castKey{e.Role, e.PersonID}
		if !before[k] {
			diff.Added[e.Role] = append(diff.Added[e.Role], e.PersonID)
			before[k] = true
		}
	}
	for _, e := range prior {
		k := castKey{e.Role, e.PersonID}
		if !after[k] {
			diff.Removed[e.Role] = append(diff.Removed[e.Role], e.PersonID)
			after[k] = true
		}
	}
	return diff
}
