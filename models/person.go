package models

import "fmt"

// Role is the part a person plays in a movie's cast.
type Role string

const (
	RoleActor    Role = "actor"
	RoleProducer Role = "producer"
)

// Roles lists every valid role.
var Roles = []Role{RoleActor, RoleProducer}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleActor, RoleProducer:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Person is an actor or a producer. Actors and producers live in separate
// collections but share this shape. Movies is a back-reference index kept in
// sync with movie casts; the movie document stays the source of truth.
type Person struct {
	ID       string   `bson:"_id" json:"id"`
	Name     string   `bson:"name" json:"name"`
	ImageURL string   `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Movies   []string `bson:"movies" json:"movies"`
}
