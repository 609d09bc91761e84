// Package docs holds the OpenAPI document served at /swagger.
// Regenerate with `swag init -g cmd/server/main.go`.
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
        "/status": {"get": {"tags": ["health"], "summary": "Service status", "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/ready": {"get": {"tags": ["health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register user", "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/handlers.registerRequest"}}],
            "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "consumes": ["application/json", "application/x-www-form-urlencoded"], "produces": ["application/json"],
            "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/handlers.loginRequest"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.tokenResponse"}}, "401": {"description": "Unauthorized"}}}},
        "/book/admin/add": {"post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Add books in bulk",
            "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/handlers.bookDTO"}}}],
            "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/book/admin/create": {"post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Create book",
            "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/handlers.bookDTO"}}],
            "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/book/admin/update": {"put": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Update book",
            "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/handlers.bookDTO"}}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/book/admin/delete": {"delete": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Delete books",
            "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/handlers.bookDTO"}}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/book/user/all": {"get": {"tags": ["books"], "summary": "List books",
            "parameters": [{"in": "query", "name": "page", "type": "integer"}, {"in": "query", "name": "page_size", "type": "integer"}],
            "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/catalog.Book"}}}}}},
        "/book/user/search": {"get": {"tags": ["books"], "summary": "Search books",
            "parameters": [{"in": "query", "name": "query", "type": "string"}, {"in": "query", "name": "page", "type": "integer"}, {"in": "query", "name": "page_size", "type": "integer"}],
            "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/catalog.Book"}}}}}},
        "/book/user/personalize": {"get": {"security": [{"BearerAuth": []}], "tags": ["books"], "summary": "Recommendations",
            "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/catalog.Book"}}}}}},
        "/book/user/borrow": {"post": {"security": [{"BearerAuth": []}], "tags": ["books"], "summary": "Borrow book",
            "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/handlers.bookRequest"}}],
            "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.issueResponse"}}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}},
        "/book/user/return": {"post": {"security": [{"BearerAuth": []}], "tags": ["books"], "summary": "Return book",
            "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/handlers.bookRequest"}}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}}
    },
    "definitions": {
        "catalog.Book": {"type": "object", "properties": {
            "isbn": {"type": "string"}, "title": {"type": "string"}, "author": {"type": "string"},
            "published_year": {"type": "integer"}, "quantity": {"type": "integer"}}},
        "handlers.bookDTO": {"type": "object", "properties": {
            "isbn": {"type": "string"}, "title": {"type": "string"}, "author": {"type": "string"},
            "published_year": {"type": "integer"}, "quantity": {"type": "integer"}}},
        "handlers.bookRequest": {"type": "object", "properties": {"isbn": {"type": "string"}}},
        "handlers.issueResponse": {"type": "object", "properties": {
            "user_id": {"type": "string"}, "book_id": {"type": "string"}, "borrow_date": {"type": "string"}}},
        "handlers.registerRequest": {"type": "object", "properties": {
            "name": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"},
            "role": {"type": "array", "items": {"type": "string"}}}},
        "handlers.loginRequest": {"type": "object", "properties": {
            "email": {"type": "string"}, "username": {"type": "string"}, "password": {"type": "string"}}},
        "handlers.tokenResponse": {"type": "object", "properties": {
            "access_token": {"type": "string"}, "token_type": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "library-service API",
	Description:      "Library catalog, accounts and lending.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
