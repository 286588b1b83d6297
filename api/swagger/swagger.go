package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Team Calendar API",
        "description": "Shared team calendar with meeting rosters and availability search",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Access tokens"},
        {"name": "Users", "description": "Accounts and manager role"},
        {"name": "Calendar", "description": "Events, meetings and availability"},
        {"name": "Metrics", "description": "Operational counters"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "description": "Pings the calendar store",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Store unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Prometheus exposition"}}
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Metrics summary",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Snapshot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Manager role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Logout",
                "description": "Revokes the presented access token",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Revoked"}}
            }
        },
        "/api/v1/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Users", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Manager role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "description": "The username is the first initial followed by the last name, lower-cased. Anonymous registration is allowed; is_manager requires a manager bearer token.",
                "security": [{}, {"BearerAuth": []}],
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Manager flag requested without a manager token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Username already taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/users/{username}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "username", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "User", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Users"],
                "summary": "Update own profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "username", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "User", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Delete own account",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "username", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/calendar": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Load calendar",
                "description": "Owned events followed by meetings the caller attends",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Events", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/calendar/date": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Events on a date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "date", "type": "string", "required": true, "description": "YYYY-MM-DD"},
                    {"in": "query", "name": "tz", "type": "string", "description": "IANA time zone, default UTC"}
                ],
                "responses": {"200": {"description": "Events", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/calendar/range": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Events in a range",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "from", "type": "string", "required": true},
                    {"in": "query", "name": "to", "type": "string", "required": true},
                    {"in": "query", "name": "tz", "type": "string"}
                ],
                "responses": {"200": {"description": "Events", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/calendar/month": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Events in a month",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "year", "type": "integer", "required": true},
                    {"in": "query", "name": "month", "type": "integer", "required": true},
                    {"in": "query", "name": "tz", "type": "string"}
                ],
                "responses": {"200": {"description": "Events", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/calendar/export": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Export calendar",
                "produces": ["text/calendar", "text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["ics", "csv", "pdf"]},
                    {"in": "query", "name": "from", "type": "string", "required": true},
                    {"in": "query", "name": "to", "type": "string", "required": true},
                    {"in": "query", "name": "tz", "type": "string"}
                ],
                "responses": {"200": {"description": "Attachment"}}
            }
        },
        "/api/v1/calendar/events": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Add event",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Meetings require the manager role", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlaps an existing event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/calendar/events/{id}": {
            "patch": {
                "tags": ["Calendar"],
                "summary": "Edit event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "Event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Calendar"],
                "summary": "Remove event",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "204": {"description": "Removed"},
                    "403": {"description": "Not the owner or organizer", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Delete anomaly", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/calendar/slots": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Find meeting slots",
                "description": "Hourly start times between 09:00 and 17:00 free for the caller and every attendee",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SlotSearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Slots", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown attendee", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateUserRequest": {
            "type": "object",
            "required": ["first_name", "last_name", "password"],
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "is_manager": {"type": "boolean"}
            }
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "is_manager": {"type": "boolean"}
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "required": ["title", "start", "end"],
            "properties": {
                "title": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "description": {"type": "string"},
                "meeting": {"type": "boolean"},
                "organizer": {"type": "string"},
                "attendees": {"type": "array", "items": {"type": "string"}},
                "location": {"type": "string"}
            }
        },
        "UpdateEventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "location": {"type": "string"}
            }
        },
        "SlotSearchRequest": {
            "type": "object",
            "required": ["date", "duration_minutes"],
            "properties": {
                "date": {"type": "string", "example": "2024-06-01"},
                "duration_minutes": {"type": "integer"},
                "attendees": {"type": "array", "items": {"type": "string"}},
                "tz": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
