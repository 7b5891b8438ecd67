// Package docs registers the operator API's OpenAPI document with swag.
// Regenerate with `swag init -g cmd/syncd/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Logout", "responses": {"204": {"description": "No Content"}}}
        },
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register an attendee",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/session": {
            "get": {"produces": ["application/json"], "tags": ["session"], "summary": "Current session", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/v1/session/refresh": {
            "post": {"produces": ["application/json"], "tags": ["session"], "summary": "Refresh session", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/v1/session/changes": {
            "get": {"produces": ["application/json"], "tags": ["session"], "summary": "Session change signal", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/roster": {
            "get": {
                "produces": ["application/json"],
                "tags": ["roster"],
                "summary": "List attendees",
                "parameters": [{"type": "string", "description": "Case-insensitive search", "name": "q", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/v1/roster/refresh": {
            "post": {"produces": ["application/json"], "tags": ["roster"], "summary": "Refresh roster", "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}}
        },
        "/v1/roster/stats": {
            "get": {"produces": ["application/json"], "tags": ["roster"], "summary": "Roster statistics", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/checkins": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["checkins"],
                "summary": "Record a scan",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.scanRequest"}}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/v1/checkins/batch": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["checkins"],
                "summary": "Queue a batch of scans",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.scanRequest"}}}],
                "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad Request"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/v1/attendees/{id}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attendees"],
                "summary": "Edit an attendee profile",
                "parameters": [{"type": "string", "description": "Attendee id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["attendees"],
                "summary": "Delete an attendee",
                "parameters": [{"type": "string", "description": "Attendee id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/forum/messages": {
            "get": {"produces": ["application/json"], "tags": ["forum"], "summary": "Forum messages", "responses": {"200": {"description": "OK"}}},
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["forum"], "summary": "Post to the forum", "responses": {"202": {"description": "Accepted"}, "503": {"description": "Service Unavailable"}}}
        }
    },
    "definitions": {
        "handler.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.scanRequest": {
            "type": "object",
            "required": ["code", "day", "turn"],
            "properties": {
                "code": {"type": "string"},
                "day": {"type": "integer", "maximum": 3, "minimum": 1},
                "turn": {"type": "string", "enum": ["morning", "afternoon"]}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Check-in Sync API",
	Description:      "Local operator API of the conference check-in agent.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
