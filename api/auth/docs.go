// Package auth holds the swagger document for the identity service.
// Regenerate with: swag init -g internal/auth/http/router.go -o api/auth --packageName auth
package auth

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
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}},
                    "503": {"description": "service not ready", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/v1/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Register",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/authsdk.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "the created user", "schema": {"$ref": "#/definitions/authsdk.RegisterResponse"}},
                    "400": {"description": "invalid_request or weak_password", "schema": {"$ref": "#/definitions/httpx.APIError"}},
                    "409": {"description": "conflict", "schema": {"$ref": "#/definitions/httpx.APIError"}},
                    "429": {"description": "rate_limit_exceeded", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/authsdk.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "access_token, token_type, expires_in, refresh_token, user", "schema": {"$ref": "#/definitions/authsdk.TokenResponse"}},
                    "400": {"description": "invalid_request", "schema": {"$ref": "#/definitions/httpx.APIError"}},
                    "401": {"description": "invalid_credentials", "schema": {"$ref": "#/definitions/httpx.APIError"}},
                    "429": {"description": "rate_limit_exceeded", "schema": {"$ref": "#/definitions/httpx.APIError"}},
                    "503": {"description": "dependency_unavailable", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            }
        },
        "/v1/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Refresh",
                "parameters": [
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/authsdk.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "rotated tokens", "schema": {"$ref": "#/definitions/authsdk.TokenResponse"}},
                    "401": {"description": "token_invalid", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Logout",
                "parameters": [
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/authsdk.LogoutRequest"}}
                ],
                "responses": {
                    "200": {"description": "always", "schema": {"$ref": "#/definitions/authsdk.MessageResponse"}}
                }
            }
        },
        "/v1/auth/password": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Change password",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/authsdk.ChangePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.MessageResponse"}},
                    "400": {"description": "invalid_request or weak_password", "schema": {"$ref": "#/definitions/httpx.APIError"}},
                    "401": {"description": "invalid_credentials or token errors", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            }
        },
        "/v1/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.MeResponse"}},
                    "401": {"description": "token_expired, token_invalid or token_revoked", "schema": {"$ref": "#/definitions/httpx.APIError"}},
                    "404": {"description": "not_found", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            }
        },
        "/v1/auth/verify": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Verify access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.VerifyResponse"}},
                    "401": {"description": "token_expired, token_invalid or token_revoked", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            }
        },
        "/v1/auth/sessions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "List my sessions",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/authsdk.SessionResponse"}}},
                    "403": {"description": "insufficient_permission", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            }
        },
        "/v1/auth/sessions/all": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Every active session in the system, grouped by user ID. Requires manage:all_sessions.",
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "List all sessions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.AllSessionsResponse"}},
                    "403": {"description": "insufficient_permission", "schema": {"$ref": "#/definitions/httpx.APIError"}},
                    "503": {"description": "dependency_unavailable", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            }
        },
        "/v1/auth/rbac": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the caller's role and permissions, plus every role and permission the server knows.",
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Role and permission catalogue",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.RBACInfoResponse"}},
                    "401": {"description": "token_expired, token_invalid or token_revoked", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            }
        },
        "/v1/auth/users/{id}/sessions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "List a user's sessions",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/authsdk.SessionResponse"}}},
                    "403": {"description": "insufficient_permission", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Revoke a user's sessions",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.RevokeSessionsResponse"}},
                    "403": {"description": "insufficient_permission", "schema": {"$ref": "#/definitions/httpx.APIError"}},
                    "503": {"description": "dependency_unavailable", "schema": {"$ref": "#/definitions/httpx.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "httpx.APIError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"}
            }
        },
        "authsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"},
                "blacklist": {"type": "string"},
                "broker": {"type": "string"}
            }
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"$ref": "#/definitions/authsdk.HealthChecks"}
            }
        },
        "authsdk.RegisterRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "authsdk.LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "remember_me": {"type": "boolean"},
                "device_info": {"type": "string"}
            }
        },
        "authsdk.RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "authsdk.LogoutRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"},
                "logout_all": {"type": "boolean"}
            }
        },
        "authsdk.ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "current_password": {"type": "string"},
                "new_password": {"type": "string"}
            }
        },
        "authsdk.UserResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "rbac_role": {"type": "string"}
            }
        },
        "authsdk.RegisterResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/authsdk.UserResponse"}
            }
        },
        "authsdk.TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "refresh_token": {"type": "string"},
                "user": {"$ref": "#/definitions/authsdk.UserResponse"}
            }
        },
        "authsdk.MeResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "rbac_role": {"type": "string"},
                "permissions": {"type": "array", "items": {"type": "string"}},
                "last_login_at": {"type": "string"},
                "login_count": {"type": "integer"}
            }
        },
        "authsdk.VerifyResponse": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "user": {"$ref": "#/definitions/rbac.Principal"}
            }
        },
        "rbac.Principal": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "rbac_role": {"type": "string"},
                "permissions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "authsdk.SessionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "device_info": {"type": "string"},
                "ip_address": {"type": "string"},
                "created_at": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "authsdk.AllSessionsResponse": {
            "type": "object",
            "properties": {
                "sessions_by_user": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/authsdk.SessionResponse"}}
                },
                "total_users": {"type": "integer"},
                "total_sessions": {"type": "integer"}
            }
        },
        "authsdk.RBACInfoResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/rbac.Principal"},
                "available_roles": {"type": "array", "items": {"type": "string"}},
                "available_permissions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "authsdk.RevokeSessionsResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "revoked": {"type": "integer"}
            }
        },
        "authsdk.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Identity Service API",
	Description:      "Registration, login, token refresh and session management.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
