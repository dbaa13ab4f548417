// Package docs registers the swagger spec served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/chat": {
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Ask the T&E assistant",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/analyze-ticket": {
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "Analyze an expense ticket",
                "parameters": [{"type": "file", "name": "ticket_file", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad request"}
                }
            }
        },
        "/api/analyze-multiple-tickets": {
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "Analyze several tickets at once",
                "parameters": [{"type": "file", "name": "tickets", "in": "formData", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/ticket-preview": {
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "Preview a ticket as a normalized receipt",
                "parameters": [{"type": "file", "name": "ticket_file", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad request"}
                }
            }
        },
        "/api/analysis-history": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "List past analyses",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/feedback": {
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["feedback"],
                "summary": "Submit feedback on an analysis",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/te-status": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Policy documents status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/load-te-documents": {
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Load policy documents",
                "parameters": [
                    {"type": "file", "name": "excel_file", "in": "formData", "required": true},
                    {"type": "file", "name": "word_file", "in": "formData", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/view-excel-rules": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "View the loaded expense rules",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not loaded"}}
            }
        },
        "/api/view-word-policies": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "View the loaded policy text",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not loaded"}}
            }
        },
        "/api/logs": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Recent activity log",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin only"}}
            }
        },
        "/api/logs-stats": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Activity log statistics",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin only"}}
            }
        },
        "/api/users": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List registered users",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin only"}}
            }
        },
        "/api/feedback-stats": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Aggregated feedback statistics",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin only"}}
            }
        }
    },
    "securityDefinitions": {
        "SessionCookie": {
            "type": "apiKey",
            "name": "session_token",
            "in": "cookie"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "T&E Chatbot API",
	Description:      "Travel & Expense assistant: policy chat, receipt analysis and admin reporting",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
