// Package docs registers the OpenAPI document served under /swagger/.
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
        "/v1/polls": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Create a poll",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/PollResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/polls/{poll_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Get a poll",
                "parameters": [{"type": "string", "name": "poll_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PollResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Delete a poll; purge=true also deletes its votes",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "poll_id", "in": "path", "required": true},
                    {"type": "boolean", "name": "purge", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DeletePollResponse"}},
                    "403": {"description": "Not a poll admin", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/polls/{poll_id}/settings": {
            "patch": {
                "consumes": ["application/json"],
                "tags": ["polls"],
                "summary": "Replace poll admins and options",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "poll_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePollSettingsRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Not a poll admin", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/v1/polls/{poll_id}/close": {
            "post": {
                "tags": ["polls"],
                "summary": "Close a poll",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "poll_id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Not a poll admin", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/v1/polls/{poll_id}/votes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "List the votes of a poll",
                "parameters": [{"type": "string", "name": "poll_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/VoteListResponse"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Cast a vote",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "poll_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CastVoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CastVoteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Poll closed", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/polls/{poll_id}/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Vote counts per choice",
                "parameters": [{"type": "string", "name": "poll_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/PollResultsResponse"}}}
            }
        },
        "/v1/votes/{vote_id}": {
            "delete": {
                "tags": ["votes"],
                "summary": "Delete one vote",
                "parameters": [{"type": "string", "name": "vote_id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/v1/schedules": {
            "get": {
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "List schedules",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ScheduleListResponse"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "Create or replace the schedule of a poll",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleResponse"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ScheduleResponse"}}}
            }
        },
        "/v1/schedules/{poll_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "Get the schedule of a poll",
                "parameters": [{"type": "string", "name": "poll_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ScheduleResponse"}}}
            },
            "delete": {
                "tags": ["schedules"],
                "summary": "Delete the schedule of a poll",
                "parameters": [{"type": "string", "name": "poll_id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "CreatePollRequest": {
            "type": "object",
            "properties": {
                "question": {"type": "string"},
                "choices": {"type": "array", "items": {"type": "string"}},
                "parent_id": {"type": "string"},
                "admins": {"type": "array", "items": {"type": "string"}},
                "options": {"type": "object", "additionalProperties": true}
            }
        },
        "UpdatePollSettingsRequest": {
            "type": "object",
            "properties": {
                "admins": {"type": "array", "items": {"type": "string"}},
                "options": {"type": "object", "additionalProperties": true}
            }
        },
        "PollResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "string"},
                "owner_id": {"type": "string"},
                "question": {"type": "string"},
                "choices": {"type": "array", "items": {"type": "string"}},
                "closed": {"type": "boolean"},
                "parent_id": {"type": "string"},
                "created_at": {"type": "string"},
                "admins": {"type": "array", "items": {"type": "string"}},
                "options": {"type": "object", "additionalProperties": true}
            }
        },
        "DeletePollResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "string"},
                "purged": {"type": "boolean"},
                "votes_removed": {"type": "integer"}
            }
        },
        "CastVoteRequest": {
            "type": "object",
            "properties": {"choice_id": {"type": "string"}}
        },
        "VoteResponse": {
            "type": "object",
            "properties": {
                "vote_id": {"type": "string"},
                "poll_id": {"type": "string"},
                "choice_id": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "CastVoteResponse": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["added", "removed", "replaced"]},
                "vote": {"$ref": "#/definitions/VoteResponse"},
                "removed_vote_ids": {"type": "array", "items": {"type": "string"}},
                "single_vote": {"type": "boolean"}
            }
        },
        "VoteListResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/VoteResponse"}}
            }
        },
        "ChoiceCount": {
            "type": "object",
            "properties": {"choice_id": {"type": "string"}, "votes": {"type": "integer"}}
        },
        "PollResultsResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "string"},
                "question": {"type": "string"},
                "closed": {"type": "boolean"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/ChoiceCount"}},
                "unknown": {"type": "array", "items": {"$ref": "#/definitions/ChoiceCount"}},
                "total_votes": {"type": "integer"},
                "voters": {"type": "integer"},
                "hidden": {"type": "boolean"}
            }
        },
        "ScheduleResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "string"},
                "channel_id": {"type": "string"},
                "cron_exp": {"type": "string"},
                "type": {"type": "string", "enum": ["repost", "auto_close"]}
            }
        },
        "ScheduleListResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/ScheduleResponse"}}
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
	Title:            "pollkeeper API",
	Description:      "Polls, votes and posting schedules.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
