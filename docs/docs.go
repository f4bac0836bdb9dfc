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
        "/pivots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pivots"],
                "summary": "List pivot reports",
                "responses": {
                    "200": {"description": "List of reports", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Report"}}},
                    "500": {"description": "Internal server error", "schema": {"type": "object"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pivots"],
                "summary": "Create a pivot report",
                "parameters": [
                    {"description": "Report spec", "name": "report", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ReportSpec"}},
                    {"type": "boolean", "description": "Run synchronously", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Finished report (wait=true)", "schema": {"type": "object"}},
                    "202": {"description": "Report accepted", "schema": {"type": "object"}},
                    "400": {"description": "Invalid report spec", "schema": {"type": "object"}}
                }
            }
        },
        "/pivots/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pivots"],
                "summary": "Get pivot report",
                "parameters": [{"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Report details", "schema": {"type": "object"}},
                    "404": {"description": "Report not found", "schema": {"type": "object"}}
                }
            },
            "delete": {
                "tags": ["pivots"],
                "summary": "Delete pivot report",
                "parameters": [{"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Report not found", "schema": {"type": "object"}}
                }
            }
        },
        "/pivots/{id}/export": {
            "get": {
                "produces": ["text/csv", "application/json"],
                "tags": ["pivots"],
                "summary": "Export pivot report",
                "parameters": [
                    {"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "csv (default) or json", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Encoded rows", "schema": {"type": "string"}},
                    "304": {"description": "Not modified"},
                    "404": {"description": "Report or result not found", "schema": {"type": "object"}}
                }
            }
        },
        "/pivots/{id}/errors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pivots"],
                "summary": "Get pivot report errors",
                "parameters": [{"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Report errors", "schema": {"type": "object"}},
                    "404": {"description": "Report not found", "schema": {"type": "object"}}
                }
            }
        },
        "/pivots/{id}/rerun": {
            "post": {
                "produces": ["application/json"],
                "tags": ["pivots"],
                "summary": "Re-run pivot report",
                "parameters": [
                    {"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "description": "Run synchronously", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Finished report (wait=true)", "schema": {"type": "object"}},
                    "202": {"description": "Re-run accepted", "schema": {"type": "object"}},
                    "404": {"description": "Report not found", "schema": {"type": "object"}},
                    "409": {"description": "Report is still running", "schema": {"type": "object"}}
                }
            }
        },
        "/transform": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["engine"],
                "summary": "Transform rows",
                "parameters": [{"description": "Rows and pivot config", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.TransformRequest"}}],
                "responses": {
                    "200": {"description": "Pivot result", "schema": {"type": "object"}},
                    "400": {"description": "Invalid pivot config", "schema": {"type": "object"}}
                }
            }
        },
        "/fields": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["engine"],
                "summary": "Discover fields",
                "parameters": [{"description": "Sample rows", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.FieldsRequest"}}],
                "responses": {
                    "200": {"description": "Fields", "schema": {"type": "array", "items": {"$ref": "#/definitions/pivot.Field"}}}
                }
            }
        },
        "/hash": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["engine"],
                "summary": "Hash pivot config",
                "parameters": [{"description": "Pivot config", "name": "config", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.PivotConfig"}}],
                "responses": {
                    "200": {"description": "Hash and mode", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "handler.FieldsRequest": {
            "type": "object",
            "properties": {"rows": {"type": "array", "items": {"type": "object"}}}
        },
        "handler.TransformRequest": {
            "type": "object",
            "properties": {
                "rows": {"type": "array", "items": {"type": "object"}},
                "config": {"$ref": "#/definitions/model.PivotConfig"}
            }
        },
        "model.ValueField": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "aggregation": {"type": "string", "enum": ["sum", "avg", "count", "min", "max", "median", "first", "last"]},
                "displayName": {"type": "string"}
            }
        },
        "model.Options": {
            "type": "object",
            "properties": {
                "showRowTotals": {"type": "boolean"},
                "showColumnTotals": {"type": "boolean"},
                "showGrandTotal": {"type": "boolean"},
                "expandedByDefault": {"type": "boolean"}
            }
        },
        "model.PivotConfig": {
            "type": "object",
            "properties": {
                "rowFields": {"type": "array", "items": {"type": "string"}},
                "columnFields": {"type": "array", "items": {"type": "string"}},
                "valueFields": {"type": "array", "items": {"$ref": "#/definitions/model.ValueField"}},
                "options": {"$ref": "#/definitions/model.Options"},
                "filters": {"type": "object"}
            }
        },
        "model.Source": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["csv", "json", "api", "sql"]},
                "url": {"type": "string"},
                "driver": {"type": "string"},
                "query": {"type": "string"}
            }
        },
        "model.Export": {
            "type": "object",
            "properties": {
                "file": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "json"]}
            }
        },
        "model.ReportSpec": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "sources": {"type": "array", "items": {"$ref": "#/definitions/model.Source"}},
                "rows": {"type": "array", "items": {"type": "object"}},
                "transformations": {"type": "array", "items": {"type": "string"}},
                "pivot": {"$ref": "#/definitions/model.PivotConfig"},
                "export": {"$ref": "#/definitions/model.Export"},
                "timeout": {"type": "string"}
            }
        },
        "model.Report": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "running", "completed", "failed"]},
                "config_hash": {"type": "string"},
                "spec": {"$ref": "#/definitions/model.ReportSpec"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "pivot.Field": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "label": {"type": "string"},
                "type": {"type": "string", "enum": ["number", "date", "boolean", "string"]}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Pivot Table API",
	Description:      "Pivot reports over CSV, JSON and SQL sources.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
