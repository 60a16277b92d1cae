// Package authz centralizes the three authorization precedence rules so each
// endpoint only declares the actor, the action and the resource it touches
// instead of re-implementing role and ownership checks per route.
package authz

import (
	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/models"
)

// Action is what the actor is trying to do to the resource.
type Action int

const (
	ActionRead Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
	// ActionSetStatus flips an activity flag (soft delete / restore).
	ActionSetStatus
	// ActionSetRole changes an account role. Never granted by ownership.
	ActionSetRole
)

// Actor identifies the requester. A nil actor (or empty ID) is an
// unauthenticated request.
type Actor struct {
	ID   string
	Role string
}

// Resource describes the target. OwnerID is the hex id of the owning user
// (empty when the resource has no owner, e.g. a university). Public marks
// resources readable without authentication.
type Resource struct {
	OwnerID string
	Public  bool
}

// Owned builds a resource owned by the given user id, readable by anyone.
func Owned(ownerID string) Resource { return Resource{OwnerID: ownerID, Public: true} }

// Public builds an ownerless resource readable by anyone; writes require the
// admin rule.
func Public() Resource { return Resource{Public: true} }

// AdminOnly builds a resource with no owner and no public read; every action
// requires the admin role.
func AdminOnly() Resource { return Resource{} }

// Authorize evaluates the precedence rules in order:
//
//  1. unauthenticated actors may only read public resources;
//  2. admins may do anything;
//  3. owners may update/delete/status-change their own resources;
//  4. any authenticated actor may read public resources or create under a
//     public collection;
//  5. everything else is forbidden.
//
// The returned error is an *apperr.Error carrying Unauthenticated or
// Forbidden, ready for the handler boundary.
func Authorize(actor *Actor, action Action, res Resource) error {
	if actor == nil || actor.ID == "" {
		if action == ActionRead && res.Public {
			return nil
		}
		return apperr.Unauthenticated("authentication required")
	}

	if actor.Role == models.RoleAdmin {
		return nil
	}

	if res.OwnerID != "" && actor.ID == res.OwnerID {
		switch action {
		case ActionRead, ActionUpdate, ActionDelete, ActionSetStatus:
			return nil
		}
		// role changes on one's own account still require admin
	}

	if action == ActionRead && res.Public {
		return nil
	}
	if action == ActionCreate && res.Public {
		return nil
	}

	return apperr.Forbidden("insufficient permissions")
}
