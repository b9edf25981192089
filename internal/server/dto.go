package server

import (
	"northtrade/internal/query"
	"northtrade/internal/tasks"
)

// Every strategy response carries the execution metadata alongside the
// rows so callers can compare strategies.

type MetaResponse struct {
	Duration   float64 `json:"duration"`
	QueryCount int64   `json:"query_count"`
	RowCount   int     `json:"row_count"`
}

func metaResponse(m query.Meta) MetaResponse {
	return MetaResponse{
		Duration:   m.Duration.Seconds(),
		QueryCount: m.Queries,
		RowCount:   m.Rows,
	}
}

type OrderListResponse struct {
	MetaResponse
	Results []query.OrderRow `json:"results"`
}

type ProductListResponse struct {
	MetaResponse
	Results []query.ProductRow `json:"results"`
}

type ProductLightListResponse struct {
	MetaResponse
	Results []query.ProductLightRow `json:"results"`
}

type CategoryListResponse struct {
	MetaResponse
	Results []query.CategoryRow `json:"results"`
}

type ProductValuesResponse struct {
	MetaResponse
	Results []map[string]any `json:"results"`
}

type ProductTuplesResponse struct {
	MetaResponse
	Results [][]any `json:"results"`
}

type IncreasePriceResponse struct {
	Status  string           `json:"status"`
	Product query.ProductRow `json:"product"`
}

type TaskDispatchResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

type TaskStatusResponse struct {
	TaskID string       `json:"task_id"`
	Status tasks.Status `json:"status" enum:"pending,running,succeeded,failed"`
}

type TaskResultResponse struct {
	TaskID string `json:"task_id"`
	Result string `json:"result"`
}

type HeavyResponse struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}

type CachedProductsResponse struct {
	Count    int                     `json:"count"`
	Products []query.ProductLightRow `json:"products"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}
