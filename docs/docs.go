// Package docs registers the OpenAPI document served at /docs.
//
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/": {
            "get": {"tags": ["meta"], "summary": "API root info", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/health": {
            "get": {"tags": ["health"], "summary": "Health check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/health/db": {
            "get": {"tags": ["health"], "summary": "Database health check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/health/cache": {
            "get": {"tags": ["health"], "summary": "Cache health check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/imports/{leagueCode}": {
            "post": {
                "tags": ["imports"],
                "summary": "Import a league",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "League code, e.g. PL", "name": "leagueCode", "in": "path", "required": true},
                    {"type": "boolean", "description": "Run in the background", "name": "async", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Competition"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.ImportAccepted"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/imports/status": {
            "get": {"tags": ["imports"], "summary": "Import status", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/status.ImportStatus"}}}}
        },
        "/api/v1/competitions": {
            "get": {"tags": ["competitions"], "summary": "List competitions", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Competition"}}}}}
        },
        "/api/v1/competitions/{code}": {
            "get": {
                "tags": ["competitions"], "summary": "Competition graph", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "code", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Competition"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/competitions/{code}/players": {
            "get": {
                "tags": ["people"], "summary": "Players by league", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "code", "in": "path", "required": true},
                    {"type": "string", "name": "team", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Player"}}}}
            }
        },
        "/api/v1/competitions/{code}/coaches": {
            "get": {
                "tags": ["people"], "summary": "Coaches by league", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "code", "in": "path", "required": true},
                    {"type": "string", "name": "team", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Coach"}}}}
            }
        },
        "/api/v1/teams": {
            "get": {"tags": ["teams"], "summary": "List teams", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Team"}}}}}
        },
        "/api/v1/teams/{name}": {
            "get": {
                "tags": ["teams"], "summary": "Team detail", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Team"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/players": {
            "get": {"tags": ["people"], "summary": "List players", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Player"}}}}}
        },
        "/api/v1/coaches": {
            "get": {"tags": ["people"], "summary": "List coaches", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Coach"}}}}}
        }
    },
    "definitions": {
        "handler.ImportAccepted": {
            "type": "object",
            "properties": {
                "leagueCode": {"type": "string"},
                "status": {"type": "string"},
                "statusUrl": {"type": "string"}
            }
        },
        "model.Competition": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "code": {"type": "string"},
                "areaName": {"type": "string"},
                "teams": {"type": "array", "items": {"$ref": "#/definitions/model.Team"}}
            }
        },
        "model.Team": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "tla": {"type": "string"},
                "shortName": {"type": "string"},
                "areaName": {"type": "string"},
                "address": {"type": "string"},
                "players": {"type": "array", "items": {"$ref": "#/definitions/model.Player"}},
                "coaches": {"type": "array", "items": {"$ref": "#/definitions/model.Coach"}},
                "competitions": {"type": "array", "items": {"$ref": "#/definitions/model.Competition"}}
            }
        },
        "model.Player": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "teamId": {"type": "integer"},
                "name": {"type": "string"},
                "position": {"type": "string"},
                "dateOfBirth": {"type": "string"},
                "nationality": {"type": "string"}
            }
        },
        "model.Coach": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "teamId": {"type": "integer"},
                "name": {"type": "string"},
                "dateOfBirth": {"type": "string"},
                "nationality": {"type": "string"}
            }
        },
        "status.ImportStatus": {
            "type": "object",
            "properties": {
                "isImporting": {"type": "boolean"},
                "leagueCode": {"type": "string"},
                "progress": {"type": "integer"},
                "teamsProcessed": {"type": "integer"},
                "totalTeams": {"type": "integer"},
                "lastUpdated": {"type": "string"},
                "error": {"type": "string"},
                "runId": {"type": "string"},
                "phase": {"type": "string"}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "detail": {"type": "string"}
                    }
                }
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
	Title:            "squadsync API",
	Description:      "Imports football competitions, teams and squads from football-data.org and serves the stored graph.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
