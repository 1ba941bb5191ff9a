// Package swagger registers the OpenAPI document served by the swagger UI.
// It is kept in the layout swag init produces; update it together with the
// @ annotations on the API handlers.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "Blog Support",
			"url": "https://github.com/mikepea/blog"
		},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/auth/login": {
			"post": {
				"description": "Authenticate with email and password to receive a JWT token",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Login",
				"parameters": [
					{
						"description": "Login credentials",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/auth.LoginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/auth.AuthResponse"
						}
					},
					"400": {
						"description": "Validation error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"401": {
						"description": "Invalid credentials",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/auth/logout": {
			"post": {
				"description": "Logout the current user (client-side token invalidation)",
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Logout",
				"responses": {
					"200": {
						"description": "Logged out successfully",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/auth/me": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Get the authenticated author's profile",
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Get current user",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/auth.UserResponse"
						}
					},
					"401": {
						"description": "Authentication required",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/categories": {
			"get": {
				"description": "Get all categories by name, with post counts",
				"produces": [
					"application/json"
				],
				"tags": [
					"categories"
				],
				"summary": "List categories",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/categories.CategoryResponse"
							}
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Create a new category (admin only)",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"categories"
				],
				"summary": "Create a category",
				"parameters": [
					{
						"description": "Category details",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/categories.CreateCategoryRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/categories.CategoryResponse"
						}
					},
					"400": {
						"description": "Validation error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"403": {
						"description": "Admin access required",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/export": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Export all posts with their categories and tags",
				"produces": [
					"application/json"
				],
				"tags": [
					"import-export"
				],
				"summary": "Export posts",
				"parameters": [
					{
						"type": "boolean",
						"description": "Send as a file attachment",
						"name": "download",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/importexport.ExportedPost"
							}
						}
					}
				}
			}
		},
		"/export/{id}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Export a single post with its category and tags",
				"produces": [
					"application/json"
				],
				"tags": [
					"import-export"
				],
				"summary": "Export a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/importexport.ExportedPost"
						}
					},
					"404": {
						"description": "Post not found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/import": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Import posts exported by this API; missing categories and tags are created",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"import-export"
				],
				"summary": "Import posts",
				"parameters": [
					{
						"description": "Posts to import",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/importexport.ImportRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/importexport.ImportResult"
						}
					},
					"400": {
						"description": "Validation error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/posts": {
			"get": {
				"description": "List posts newest first, optionally restricted to a month, category or tag",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "List posts",
				"parameters": [
					{
						"type": "integer",
						"description": "Archive year (requires month)",
						"name": "year",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Archive month 1-12 (requires year)",
						"name": "month",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Category ID",
						"name": "category",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Tag ID",
						"name": "tag",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Maximum number of posts",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/posts.PostResponse"
							}
						}
					},
					"400": {
						"description": "Invalid filter",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Create a post; the excerpt is derived from the body when omitted",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Create a post",
				"parameters": [
					{
						"description": "Post details",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/posts.CreatePostRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/posts.PostResponse"
						}
					},
					"400": {
						"description": "Validation error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/posts/{id}": {
			"get": {
				"description": "Get a post with its Markdown body",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Get a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/posts.PostResponse"
						}
					},
					"404": {
						"description": "Post not found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Update a post; only its author or an admin may do so",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Update a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Updated post details",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/posts.UpdatePostRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/posts.PostResponse"
						}
					},
					"400": {
						"description": "Validation error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"403": {
						"description": "Not the author",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"404": {
						"description": "Post not found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Delete a post; only its author or an admin may do so",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "Delete a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Post deleted",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"403": {
						"description": "Not the author",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"404": {
						"description": "Post not found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/posts/{id}/comments": {
			"get": {
				"description": "List the reader comments of a post, newest first",
				"produces": [
					"application/json"
				],
				"tags": [
					"posts"
				],
				"summary": "List comments",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/posts.CommentResponse"
							}
						}
					},
					"404": {
						"description": "Post not found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/posts/{id}/tags": {
			"get": {
				"description": "Get the tags of a post, by name",
				"produces": [
					"application/json"
				],
				"tags": [
					"tags"
				],
				"summary": "Get post tags",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/tags.TagResponse"
							}
						}
					},
					"404": {
						"description": "Post not found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Replace the tags of a post, creating tags that do not exist",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"tags"
				],
				"summary": "Set post tags",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Tag names",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/tags.SetTagsRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/tags.TagResponse"
							}
						}
					},
					"400": {
						"description": "Validation error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"403": {
						"description": "Not the author",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"404": {
						"description": "Post not found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/posts/{id}/tags/{tag}": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Attach one tag to a post, creating it if needed",
				"produces": [
					"application/json"
				],
				"tags": [
					"tags"
				],
				"summary": "Add a post tag",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Tag name",
						"name": "tag",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tags.TagResponse"
						}
					},
					"403": {
						"description": "Not the author",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"404": {
						"description": "Post not found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Detach one tag from a post",
				"produces": [
					"application/json"
				],
				"tags": [
					"tags"
				],
				"summary": "Remove a post tag",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Tag name",
						"name": "tag",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Tag removed",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"403": {
						"description": "Not the author",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"404": {
						"description": "Post or tag not found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/tags": {
			"get": {
				"description": "Get all tags with post counts, most used first",
				"produces": [
					"application/json"
				],
				"tags": [
					"tags"
				],
				"summary": "List tags",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/tags.TagResponse"
							}
						}
					}
				}
			}
		}
	},
	"definitions": {
		"auth.AuthResponse": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/auth.UserResponse"
				}
			}
		},
		"auth.LoginRequest": {
			"type": "object",
			"required": [
				"email",
				"password"
			],
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"auth.UserResponse": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"system_role": {
					"type": "string"
				}
			}
		},
		"categories.CategoryResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"post_count": {
					"type": "integer"
				},
				"url": {
					"type": "string"
				}
			}
		},
		"categories.CreateCategoryRequest": {
			"type": "object",
			"required": [
				"name"
			],
			"properties": {
				"name": {
					"type": "string",
					"maxLength": 100
				}
			}
		},
		"importexport.ExportedPost": {
			"type": "object",
			"properties": {
				"author": {
					"type": "string"
				},
				"body": {
					"type": "string"
				},
				"category": {
					"type": "string"
				},
				"create_time": {
					"type": "string"
				},
				"excerpt": {
					"type": "string"
				},
				"tags": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"title": {
					"type": "string"
				},
				"views": {
					"type": "integer"
				}
			}
		},
		"importexport.ImportRequest": {
			"type": "object",
			"required": [
				"posts"
			],
			"properties": {
				"posts": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/importexport.ExportedPost"
					}
				}
			}
		},
		"importexport.ImportResult": {
			"type": "object",
			"properties": {
				"errors": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"imported": {
					"type": "integer"
				},
				"skipped": {
					"type": "integer"
				}
			}
		},
		"posts.CommentResponse": {
			"type": "object",
			"properties": {
				"created_at": {
					"type": "string"
				},
				"id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"text": {
					"type": "string"
				},
				"url": {
					"type": "string"
				}
			}
		},
		"posts.CreatePostRequest": {
			"type": "object",
			"required": [
				"category_id",
				"title"
			],
			"properties": {
				"body": {
					"type": "string"
				},
				"category_id": {
					"type": "integer"
				},
				"create_time": {
					"type": "string"
				},
				"excerpt": {
					"type": "string",
					"maxLength": 200
				},
				"tags": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"title": {
					"type": "string",
					"maxLength": 100
				}
			}
		},
		"posts.PostResponse": {
			"type": "object",
			"properties": {
				"author": {
					"$ref": "#/definitions/posts.Ref"
				},
				"body": {
					"type": "string"
				},
				"category": {
					"$ref": "#/definitions/posts.Ref"
				},
				"create_time": {
					"type": "string"
				},
				"excerpt": {
					"type": "string"
				},
				"id": {
					"type": "integer"
				},
				"modified_time": {
					"type": "string"
				},
				"tags": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"title": {
					"type": "string"
				},
				"url": {
					"type": "string"
				},
				"views": {
					"type": "integer"
				}
			}
		},
		"posts.Ref": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				}
			}
		},
		"posts.UpdatePostRequest": {
			"type": "object",
			"properties": {
				"body": {
					"type": "string"
				},
				"category_id": {
					"type": "integer"
				},
				"create_time": {
					"type": "string"
				},
				"excerpt": {
					"type": "string",
					"maxLength": 200
				},
				"title": {
					"type": "string",
					"maxLength": 100
				}
			}
		},
		"tags.SetTagsRequest": {
			"type": "object",
			"required": [
				"tags"
			],
			"properties": {
				"tags": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"tags.TagResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"post_count": {
					"type": "integer"
				},
				"url": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT token. Format: \"Bearer {token}\"",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Blog API",
	Description:      "Authoring API for a Markdown blog: posts, categories, tags and comments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
