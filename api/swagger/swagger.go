package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Whisper Tags API",
        "description": "Password-protected audio clip sharing and streaming",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Admin authentication"},
        {"name": "Clips", "description": "Public clip access and streaming"},
        {"name": "Admin", "description": "Clip management"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Incorrect password"}
                }
            }
        },
        "/clips/{id}": {
            "get": {
                "tags": ["Clips"],
                "summary": "Get public clip metadata",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Clip not found"}
                }
            }
        },
        "/clips/{id}/verify": {
            "post": {
                "tags": ["Clips"],
                "summary": "Verify clip password and mint a stream token",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VerifyResponse"}},
                    "401": {"description": "Incorrect password"},
                    "404": {"description": "Clip or audio not found"}
                }
            }
        },
        "/clips/{id}/stream/{token}": {
            "get": {
                "tags": ["Clips"],
                "summary": "Stream clip audio with byte range support",
                "produces": ["audio/mpeg"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "token", "in": "path", "type": "string", "required": true},
                    {"name": "Range", "in": "header", "type": "string", "description": "Single byte range, e.g. bytes=0-1023"}
                ],
                "responses": {
                    "200": {"description": "Full content"},
                    "206": {"description": "Partial content"},
                    "400": {"description": "Malformed range header"},
                    "404": {"description": "Clip or audio not found"},
                    "416": {"description": "Range not satisfiable"}
                }
            }
        },
        "/admin/clips": {
            "get": {
                "tags": ["Admin"],
                "summary": "List active clips",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Upload a password-protected audio clip",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "title", "in": "formData", "type": "string", "required": true},
                    {"name": "password", "in": "formData", "type": "string", "required": true},
                    {"name": "audio", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload, MIME type, or size"}
                }
            }
        },
        "/admin/clips/{id}": {
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete a clip and reclaim its audio",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/admin/metrics": {
            "get": {
                "tags": ["Admin"],
                "summary": "Service metrics snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MetricsSnapshot"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "password": {"type": "string"}
            }
        },
        "VerifyRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "password": {"type": "string"}
            }
        },
        "VerifiedClip": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "filename": {"type": "string"},
                "mimeType": {"type": "string"},
                "fileSize": {"type": "integer"},
                "accessCount": {"type": "integer"}
            }
        },
        "VerifyResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "clip": {"$ref": "#/definitions/VerifiedClip"},
                "streamToken": {"type": "string"}
            }
        },
        "MetricsSnapshot": {
            "type": "object",
            "properties": {
                "requests": {"type": "integer"},
                "avgLatencyMs": {"type": "number"},
                "streamedBytes": {"type": "integer"},
                "cacheHits": {"type": "integer"},
                "cacheMisses": {"type": "integer"},
                "cacheHitRatio": {"type": "number"},
                "goroutines": {"type": "integer"},
                "heapAllocBytes": {"type": "integer"}
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
