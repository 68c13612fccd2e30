package domain

import (
	"errors"
	"time"

	"talentgrid/backend/internal/region"
)

// Portal identifies which user class an account belongs to. Each portal has
// its own signup surface but shares the auth state machine.
type Portal string

const (
	PortalHub    Portal = "hub"    // job-seekers
	PortalOrg    Portal = "org"    // employers
	PortalAgency Portal = "agency" // recruitment agencies
	PortalAdmin  Portal = "admin"  // platform operators
)

// Portals lists every supported portal.
var Portals = []Portal{PortalHub, PortalOrg, PortalAgency, PortalAdmin}

// ParsePortal validates a portal path segment.
func ParsePortal(s string) (Portal, error) {
	for _, p := range Portals {
		if Portal(s) == p {
			return p, nil
		}
	}
	return "", errors.New("unknown portal")
}

type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// DefaultRoles is the role set a fresh account of each portal carries on its
// sessions. Role evaluation itself happens outside this service.
var DefaultRoles = map[Portal][]string{
	PortalHub:    {"seeker"},
	PortalOrg:    {"member"},
	PortalAgency: {"agent"},
	PortalAdmin:  {"admin"},
}

// User is an account row in its home region's database. Accounts are never
// physically deleted; lifecycle is the status field only.
type User struct {
	ID                string
	Portal            Portal
	Email             string
	Handle            string // public URL-safe username, unique per portal+region
	Name              string
	PasswordHash      string
	Status            Status
	PreferredLanguage string
	Region            region.Region // home region, immutable after signup
	Roles             []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate validates the user for persistence. Returns an error describing
// the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if _, err := ParsePortal(string(u.Portal)); err != nil {
		return errors.New("portal is required")
	}
	if !u.Region.Valid() {
		return errors.New("home region is required")
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}
