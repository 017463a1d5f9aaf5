// Package graphql exposes a read-only query surface over the drive: the
// current account, single folders and folder listings. Mutations stay on
// the REST endpoints, which carry the upload and cascade semantics.
package graphql

import (
	"errors"
	"time"

	"github.com/graphql-go/graphql"

	"drivebox/app/models"
	"drivebox/app/services"
	pkggraphql "drivebox/pkg/graphql"
	"drivebox/pkg/middleware"
)

var errUnauthenticated = errors.New("unauthenticated")

// NewSchema builds the query schema over the given services. Resolvers
// read the verified user from the request context placed there by the
// auth middleware.
func NewSchema(auth *services.AuthService, folders *services.FolderService) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.Int, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return int(p.Source.(models.User).ID), nil
			}},
			"name": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.User).Name, nil
			}},
			"email": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.User).Email, nil
			}},
			"role": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.User).Role, nil
			}},
		},
	})

	folderType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Folder",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.Int, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return int(p.Source.(models.Folder).ID), nil
			}},
			"name": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Folder).Name, nil
			}},
			"parentId": &graphql.Field{Type: graphql.Int, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if pid := p.Source.(models.Folder).ParentID; pid != nil {
					return int(*pid), nil
				}
				return nil, nil
			}},
			"modifiedTime": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Folder).UpdatedAt.Format(time.RFC3339), nil
			}},
		},
	})

	fileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "File",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.Int, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return int(p.Source.(models.File).ID), nil
			}},
			"name": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.File).Name, nil
			}},
			"folderId": &graphql.Field{Type: graphql.Int, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if fid := p.Source.(models.File).FolderID; fid != nil {
					return int(*fid), nil
				}
				return nil, nil
			}},
			"size": &graphql.Field{Type: graphql.Int, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return int(p.Source.(models.File).Size), nil
			}},
			"contentType": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.File).ContentType, nil
			}},
			"category": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.File).Category, nil
			}},
			"modifiedTime": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.File).UpdatedAt.Format(time.RFC3339), nil
			}},
		},
	})

	listingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Listing",
		Fields: graphql.Fields{
			"folders": &graphql.Field{Type: graphql.NewList(folderType), Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(services.Listing).Folders, nil
			}},
			"files": &graphql.Field{Type: graphql.NewList(fileType), Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(services.Listing).Files, nil
			}},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID := middleware.UserIDFromCtx(p.Context)
					if userID == 0 {
						return nil, errUnauthenticated
					}
					return auth.Profile(p.Context, userID)
				},
			},
			"folder": &graphql.Field{
				Type: folderType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID := middleware.UserIDFromCtx(p.Context)
					if userID == 0 {
						return nil, errUnauthenticated
					}
					id, _ := p.Args["id"].(int)
					if id <= 0 {
						return nil, errors.New("invalid folder id")
					}
					return folders.Show(p.Context, userID, uint(id))
				},
			},
			"children": &graphql.Field{
				Type: listingType,
				Args: graphql.FieldConfigArgument{
					"parentId": &graphql.ArgumentConfig{Type: graphql.Int},
					"sort":     &graphql.ArgumentConfig{Type: graphql.String},
					"order":    &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID := middleware.UserIDFromCtx(p.Context)
					if userID == 0 {
						return nil, errUnauthenticated
					}
					var parentID *uint
					if n, ok := p.Args["parentId"].(int); ok && n > 0 {
						id := uint(n)
						parentID = &id
					}
					sort, _ := p.Args["sort"].(string)
					order, _ := p.Args["order"].(string)
					params, err := services.ParseListParams(sort, order)
					if err != nil {
						return nil, err
					}
					return folders.ListChildren(p.Context, userID, parentID, params)
				},
			},
			"breadcrumb": &graphql.Field{
				Type: graphql.NewList(folderType),
				Args: graphql.FieldConfigArgument{
					"folderId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID := middleware.UserIDFromCtx(p.Context)
					if userID == 0 {
						return nil, errUnauthenticated
					}
					id, _ := p.Args["folderId"].(int)
					if id <= 0 {
						return nil, errors.New("invalid folder id")
					}
					return folders.Breadcrumb(p.Context, userID, uint(id))
				},
			},
		},
	})

	return pkggraphql.NewSchema(query)
}
