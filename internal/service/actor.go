package service

import "github.com/vnvodich/tutor-api/internal/models"

// Actor identifies the authenticated caller of a use case.
type Actor struct {
	ID   string
	Role models.UserRole
}

// ActorFromClaims builds an Actor from verified token claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{ID: claims.UserID, Role: claims.Role}
}

func (a Actor) IsAdmin() bool  { return a.Role == models.RoleAdmin }
func (a Actor) IsTutor() bool  { return a.Role == models.RoleTutor }
func (a Actor) IsParent() bool { return a.Role == models.RoleParent }
