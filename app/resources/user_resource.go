// Package resources holds the API transformers. Each decides exactly which
// model fields leave the API; password hashes and blob keys never do.
package resources

import (
	"drivebox/app/models"
	"drivebox/app/services"
	"drivebox/pkg/resource"
)

// UserResource is the public shape of an account.
type UserResource struct{ resource.Base }

func (UserResource) ToArray(v interface{}) resource.Map {
	u := v.(models.User)
	return resource.Map{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      u.Role,
		"createdAt": u.CreatedAt,
	}
}

// AdminUserResource adds the live usage rollup for the admin overview.
type AdminUserResource struct{ resource.Base }

func (AdminUserResource) ToArray(v interface{}) resource.Map {
	o := v.(services.UserOverview)
	return resource.Map{
		"id":        o.User.ID,
		"name":      o.User.Name,
		"email":     o.User.Email,
		"role":      o.User.Role,
		"createdAt": o.User.CreatedAt,
		"usage": resource.Map{
			"folders": o.Folders,
			"files":   o.Files,
			"bytes":   o.Bytes,
		},
	}
}
