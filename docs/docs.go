// Package docs registra a especificação Swagger servida em /swagger/*.
// Gerado a partir das anotações dos handlers em internal/api (swag init -g cmd/main.go).
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/register": {"post": {"tags": ["users"], "summary": "Registra um novo usuário", "responses": {"201": {"description": "Usuário criado"}, "409": {"description": "Email já cadastrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}}}},
        "/login": {"post": {"tags": ["users"], "summary": "Autentica um usuário e retorna um JWT", "responses": {"200": {"description": "Token JWT emitido"}, "401": {"description": "Credenciais inválidas", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}}}},
        "/products": {
            "get": {"tags": ["products"], "summary": "Lista o catálogo", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["products"], "summary": "Cadastra um produto com estoque inicial", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Criado"}}}
        },
        "/products/{id}": {"get": {"tags": ["products"], "summary": "Busca um produto", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Não encontrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}}}},
        "/cart": {"get": {"tags": ["cart"], "summary": "Carrinho do usuário", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/cart/items": {
            "post": {"tags": ["cart"], "summary": "Adiciona um item ao carrinho", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["cart"], "summary": "Altera a quantidade de um item", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["cart"], "summary": "Remove um item", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/orders": {"post": {"tags": ["orders"], "summary": "Cria um pedido", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Criado"}, "409": {"description": "OUT_OF_STOCK", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}}}},
        "/orders/mine": {"get": {"tags": ["orders"], "summary": "Pedidos do usuário", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}": {"get": {"tags": ["orders"], "summary": "Busca um pedido", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Pedido de outro usuário"}}}},
        "/orders/{id}/status": {"put": {"tags": ["admin"], "summary": "Altera o status de um pedido", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "INVALID_TRANSITION", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}}}},
        "/admin/orders": {"get": {"tags": ["admin"], "summary": "Lista pedidos", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/orders/expire-pending": {"post": {"tags": ["admin"], "summary": "Cancela pedidos pendentes antigos", "security": [{"BearerAuth": []}], "parameters": [{"name": "older_than", "in": "query", "type": "string"}], "responses": {"200": {"description": "Pedidos cancelados"}}}},
        "/admin/stats": {"get": {"tags": ["admin"], "summary": "Estatísticas do painel", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/stock": {"get": {"tags": ["stock"], "summary": "Lista o inventário por tamanho", "security": [{"BearerAuth": []}], "parameters": [{"name": "level", "in": "query", "type": "string", "enum": ["low", "mid", "high"]}], "responses": {"200": {"description": "OK"}}}},
        "/stock/update-stock": {"put": {"tags": ["stock"], "summary": "Ajusta o estoque total", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Produto atualizado"}}}},
        "/stock/update-size": {"put": {"tags": ["stock"], "summary": "Ajusta o estoque de um tamanho", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Produto atualizado"}}}},
        "/stock/set-size": {"put": {"tags": ["stock"], "summary": "Define o estoque exato de um tamanho", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Produto atualizado"}}}},
        "/payments/vnpay-return": {"get": {"tags": ["payments"], "summary": "Retorno do gateway VNPay", "responses": {"200": {"description": "OK"}, "400": {"description": "CHECKSUM_FAILED", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}}}}
    },
    "definitions": {
        "domain.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 409},
                "category": {"type": "string", "example": "OUT_OF_STOCK"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo contém as informações exportadas da especificação.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "ShoeStock API",
	Description:      "Estoque por tamanho e ciclo de vida de pedidos da loja de calçados.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
