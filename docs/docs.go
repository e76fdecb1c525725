// Package docs publica la definición Swagger de la API en /swagger.
// Mantener alineado con las anotaciones de los handlers.
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
                "description": "Valida la cuenta de operación y devuelve un bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Iniciar sesión",
                "parameters": [
                    {
                        "description": "Credenciales",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/jwtauth.loginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jwtauth.loginResponse"}},
                    "400": {"description": "invalid json", "schema": {"type": "string"}},
                    "401": {"description": "credenciales inválidas", "schema": {"type": "string"}},
                    "503": {"description": "login no configurado", "schema": {"type": "string"}}
                }
            }
        },
        "/despachos": {
            "get": {
                "description": "Lista con filtros por estado, texto libre, EPS, ciclo y paciente; orden y paginación.",
                "produces": ["application/json"],
                "tags": ["despachos"],
                "summary": "Listar despachos",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header"},
                    {"type": "string", "description": "entregados|agendados|pendientes|vencidos|urgentes|cancelados|pospuestos", "name": "estado", "in": "query"},
                    {"type": "string", "description": "Texto libre", "name": "q", "in": "query"},
                    {"type": "string", "description": "EPS", "name": "eps", "in": "query"},
                    {"type": "string", "description": "Ciclo", "name": "ciclo", "in": "query"},
                    {"type": "string", "description": "Paciente", "name": "paciente", "in": "query"},
                    {"type": "string", "description": "fecha|paciente|medicamento|eps|ciclo|estado", "name": "orden", "in": "query"},
                    {"type": "string", "description": "asc|desc", "name": "dir", "in": "query"},
                    {"type": "integer", "description": "Página", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Tamaño de página", "name": "pageSize", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dispatches.pageResponse"}},
                    "400": {"description": "invalid input", "schema": {"type": "string"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}},
                    "502": {"description": "store unavailable", "schema": {"type": "string"}}
                }
            },
            "delete": {
                "description": "Borra todos los despachos. Requiere confirmar=true.",
                "produces": ["application/json"],
                "tags": ["despachos"],
                "summary": "Borrar todos los despachos",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header", "required": true},
                    {"type": "boolean", "description": "Confirmación", "name": "confirmar", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dispatches.deleteResponse"}},
                    "400": {"description": "confirmar=true requerido", "schema": {"type": "string"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}}
                }
            }
        },
        "/despachos/calendario": {
            "get": {
                "produces": ["application/json"],
                "tags": ["despachos"],
                "summary": "Calendario mensual",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header"},
                    {"type": "string", "description": "Mes YYYY-MM", "name": "mes", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dispatches.CalendarDay"}}},
                    "400": {"description": "invalid input", "schema": {"type": "string"}}
                }
            }
        },
        "/despachos/generar": {
            "post": {
                "description": "Genera los despachos de los pacientes activos del directorio. Los ya existentes se omiten.",
                "produces": ["application/json"],
                "tags": ["despachos"],
                "summary": "Generar hoja de ruta",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header", "required": true},
                    {"type": "boolean", "description": "Transmitir avance", "name": "progreso", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dispatches.ImportReport"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}}
                }
            }
        },
        "/despachos/importar": {
            "post": {
                "description": "Recibe el CSV, genera la hoja de ruta y guarda los despachos nuevos.",
                "consumes": ["text/csv"],
                "produces": ["application/json"],
                "tags": ["despachos"],
                "summary": "Importar prescripciones",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header", "required": true},
                    {"type": "boolean", "description": "Transmitir avance", "name": "progreso", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dispatches.ImportReport"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}},
                    "413": {"description": "archivo demasiado grande", "schema": {"type": "string"}},
                    "422": {"description": "No se encontró cabecera válida.", "schema": {"type": "string"}},
                    "502": {"description": "store unavailable", "schema": {"type": "string"}}
                }
            }
        },
        "/despachos/kpis": {
            "get": {
                "produces": ["application/json"],
                "tags": ["despachos"],
                "summary": "Indicadores",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dispatches.Summary"}}
                }
            }
        },
        "/despachos/stream": {
            "get": {
                "description": "Websocket. Primer mensaje: snapshot completo; luego uno por cada cambio.",
                "tags": ["despachos"],
                "summary": "Vista en vivo",
                "parameters": [
                    {"type": "string", "description": "Token (el navegador no envía headers)", "name": "access_token", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/despachos/{dispatchID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["despachos"],
                "summary": "Obtener despacho",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header"},
                    {"type": "string", "description": "ID del despacho", "name": "dispatchID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dispatches.dispatchView"}},
                    "404": {"description": "despacho no encontrado", "schema": {"type": "string"}}
                }
            }
        },
        "/despachos/{dispatchID}/{action}": {
            "post": {
                "description": "agendar | entregar | posponer | cancelar",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["despachos"],
                "summary": "Cambiar estado",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header", "required": true},
                    {"type": "string", "description": "ID del despacho", "name": "dispatchID", "in": "path", "required": true},
                    {"type": "string", "description": "Acción", "name": "action", "in": "path", "required": true},
                    {"description": "Datos de la transición", "name": "payload", "in": "body", "schema": {"$ref": "#/definitions/dispatches.transitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dispatches.dispatchView"}},
                    "400": {"description": "dato requerido", "schema": {"type": "string"}},
                    "404": {"description": "despacho no encontrado", "schema": {"type": "string"}},
                    "409": {"description": "transición no permitida", "schema": {"type": "string"}}
                }
            }
        },
        "/formulario": {
            "get": {
                "produces": ["application/json"],
                "tags": ["formulario"],
                "summary": "Listar catálogo de medicamentos",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/formulary.Medication"}}}
                }
            }
        },
        "/pacientes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pacientes"],
                "summary": "Listar pacientes",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/pacientes/{patientID}/despachos": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["despachos"],
                "summary": "Borrar despachos de un paciente",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header", "required": true},
                    {"type": "string", "description": "Identificación del paciente", "name": "patientID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dispatches.deleteResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dispatches.CalendarDay": {
            "type": "object",
            "properties": {
                "fecha": {"type": "string"},
                "total": {"type": "integer"},
                "entregados": {"type": "integer"},
                "despachos": {"type": "array", "items": {"$ref": "#/definitions/dispatches.Dispatch"}}
            }
        },
        "dispatches.Dispatch": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "pacienteId": {"type": "string"},
                "nombreCompleto": {"type": "string"},
                "medicamento": {"type": "string"},
                "eps": {"type": "string"},
                "municipio": {"type": "string"},
                "dosis": {"type": "string"},
                "ciclo": {"type": "string"},
                "diasEntrega": {"type": "integer"},
                "fechaProgramada": {"type": "string"},
                "confirmado": {"type": "boolean"},
                "fechaConfirmacion": {"type": "string"},
                "observaciones": {"type": "string"},
                "estadoActual": {"type": "string"},
                "motivo": {"type": "string"},
                "modalidadEntrega": {"type": "string"},
                "modificadoPor": {"type": "string"},
                "creadoEn": {"type": "string"},
                "ultimaModificacion": {"type": "string"},
                "hitos": {"type": "array", "items": {"$ref": "#/definitions/dispatches.Milestone"}}
            }
        },
        "dispatches.Milestone": {
            "type": "object",
            "properties": {
                "estado": {"type": "string"},
                "fecha": {"type": "string"},
                "nota": {"type": "string"},
                "actor": {"type": "string"},
                "registradoEn": {"type": "string"}
            }
        },
        "dispatches.dispatchView": {
            "allOf": [
                {"$ref": "#/definitions/dispatches.Dispatch"},
                {
                    "type": "object",
                    "properties": {
                        "clasificacion": {"type": "string"},
                        "urgente": {"type": "boolean"},
                        "vencido": {"type": "boolean"},
                        "acciones": {"type": "array", "items": {"type": "string"}}
                    }
                }
            ]
        },
        "dispatches.ImportReport": {
            "type": "object",
            "properties": {
                "prescripciones": {"type": "integer"},
                "generados": {"type": "integer"},
                "existentes": {"type": "integer"},
                "creados": {"type": "integer"},
                "pacientesNuevos": {"type": "integer"},
                "errores": {"type": "array", "items": {"type": "string"}},
                "estadisticas": {"$ref": "#/definitions/prescriptions.Stats"}
            }
        },
        "prescriptions.Stats": {
            "type": "object",
            "properties": {
                "filas": {"type": "integer"},
                "omitidas": {"type": "integer"},
                "delimitador": {"type": "string"},
                "lineaCabecera": {"type": "integer"}
            }
        },
        "dispatches.Summary": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "entregados": {"type": "integer"},
                "vencidos": {"type": "integer"},
                "urgentes": {"type": "integer"},
                "pendientes": {"type": "integer"},
                "agendados": {"type": "integer"},
                "pospuestos": {"type": "integer"},
                "cancelados": {"type": "integer"},
                "criticos": {"type": "integer"},
                "adherencia": {"type": "integer"}
            }
        },
        "dispatches.deleteResponse": {
            "type": "object",
            "properties": {
                "eliminados": {"type": "integer"}
            }
        },
        "dispatches.pageResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/dispatches.dispatchView"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "pages": {"type": "integer"}
            }
        },
        "dispatches.transitionRequest": {
            "type": "object",
            "properties": {
                "fecha": {"type": "string"},
                "nota": {"type": "string"},
                "motivo": {"type": "string"},
                "modalidad": {"type": "string"}
            }
        },
        "formulary.Medication": {
            "type": "object",
            "properties": {
                "medicamento": {"type": "string"},
                "atc": {"type": "string"},
                "presentacionComercial": {"type": "integer"},
                "dosisEstandar": {"type": "string"},
                "diasAdministracion": {"type": "integer"},
                "diasDescanso": {"type": "integer"},
                "total": {"type": "integer"},
                "frecuenciaEntrega": {"type": "integer"}
            }
        },
        "jwtauth.loginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "jwtauth.loginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expiresAt": {"type": "string"},
                "email": {"type": "string"}
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
	Title:            "Oncology Dispatch API",
	Description:      "Despachos de medicamentos oncológicos orales: importación, hoja de ruta y seguimiento.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
