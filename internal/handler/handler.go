// Package handler provides HTTP request handlers for the catalog API.
package handler

import "github.com/vyrodovalexey/shopapi/internal/model"

// Version is the application version.
const Version = "2.0.0"

// Response messages.
const (
	msgWelcome      = "Enhanced 쇼핑몰 API에 오신 것을 환영합니다!"
	msgHealthy      = "서버가 정상적으로 작동 중입니다"
	msgUptime       = "운영 중"
	msgItemNotFound = "아이템을 찾을 수 없습니다"
	msgInternal     = "internal server error"
)

// Features is the feature list advertised by the root endpoint.
var Features = []string{"상품 관리", "통계", "카테고리 필터", "검색"}

// RootResponse is returned by GET /.
type RootResponse struct {
	Message    string   `json:"message"`
	Version    string   `json:"version"`
	Features   []string `json:"features"`
	TotalItems int      `json:"total_items"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
	Items  int    `json:"items"`
}

// StockUpdateResponse is returned by PATCH /items/{id}/stock.
type StockUpdateResponse struct {
	Message string      `json:"message"`
	Item    *model.Item `json:"item"`
}

// DeleteResponse is returned by DELETE /items/{id}.
type DeleteResponse struct {
	Message     string      `json:"message"`
	DeletedItem *model.Item `json:"deleted_item"`
}

// CurrentUserResponse is returned by GET /users/me.
type CurrentUserResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	LastLogin string `json:"last_login"`
}

// UserResponse is returned by GET /users/{id}.
type UserResponse struct {
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// EventPublisher receives catalog change events.
type EventPublisher interface {
	Publish(event model.CatalogEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(model.CatalogEvent) {}
