package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"northtrade/internal/cache"
	"northtrade/internal/query"
	"northtrade/internal/tasks"
)

type limitQuery struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500"`
}

func registerOrders(api huma.API, q query.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "orders-unoptimized",
		Method:      http.MethodGet,
		Path:        "/orders/unoptimized",
		Summary:     "List orders, one query per related row",
		Description: "Fetches orders then resolves each customer, employee and shipper with its own query. Query count grows with the result set.",
	}, func(ctx context.Context, input *limitQuery) (*struct {
		Body OrderListResponse `json:"body"`
	}, error) {
		rows, meta, err := q.OrdersUnoptimized(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body OrderListResponse `json:"body"`
		}{Body: OrderListResponse{MetaResponse: metaResponse(meta), Results: rows}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "orders-optimized",
		Method:      http.MethodGet,
		Path:        "/orders/optimized",
		Summary:     "List orders with joined relations and batched line items",
		Description: "One joined query for the orders plus one batched query for all line items, regardless of result-set size.",
	}, func(ctx context.Context, input *limitQuery) (*struct {
		Body OrderListResponse `json:"body"`
	}, error) {
		rows, meta, err := q.OrdersOptimized(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body OrderListResponse `json:"body"`
		}{Body: OrderListResponse{MetaResponse: metaResponse(meta), Results: rows}}, nil
	})
}

func registerProducts(api huma.API, q query.Service) {
	type searchQuery struct {
		Search string `query:"search"`
		Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "products-search",
		Method:      http.MethodGet,
		Path:        "/products/search",
		Summary:     "Search products by name or low price",
		Description: "Matches products whose name contains the term OR whose unit price is below 20. An absent or empty search parameter returns the unfiltered listing.",
	}, func(ctx context.Context, input *searchQuery) (*struct {
		Body ProductListResponse `json:"body"`
	}, error) {
		// huma rejects pointer parameter fields, so absence arrives as
		// the empty string; both mean unfiltered.
		var term *string
		if input.Search != "" {
			term = &input.Search
		}
		rows, meta, err := q.SearchProducts(ctx, term, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProductListResponse `json:"body"`
		}{Body: ProductListResponse{MetaResponse: metaResponse(meta), Results: rows}}, nil
	})

	type productIDPath struct {
		ID int `path:"id" minimum:"1"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "products-increase-price",
		Method:      http.MethodPost,
		Path:        "/products/{id}/increase-price",
		Summary:     "Increase a product's unit price by 10%",
		Description: "Applies the increase in a single database-side update, so concurrent calls compound instead of clobbering each other.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *productIDPath) (*struct {
		Body IncreasePriceResponse `json:"body"`
	}, error) {
		row, _, err := q.IncreasePrice(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body IncreasePriceResponse `json:"body"`
		}{Body: IncreasePriceResponse{Status: "price increased", Product: row}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "products-projected",
		Method:      http.MethodGet,
		Path:        "/products/projected",
		Summary:     "List products restricted to id, name and price",
	}, func(ctx context.Context, input *limitQuery) (*struct {
		Body ProductLightListResponse `json:"body"`
	}, error) {
		rows, meta, err := q.ProductsProjected(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProductLightListResponse `json:"body"`
		}{Body: ProductLightListResponse{MetaResponse: metaResponse(meta), Results: rows}}, nil
	})

	type fieldsQuery struct {
		Fields []string `query:"fields"`
		Limit  int      `query:"limit" default:"50" minimum:"1" maximum:"500"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "products-values",
		Method:      http.MethodGet,
		Path:        "/products/values",
		Summary:     "Products as column-name/value mappings",
		Description: "Skips entity materialization and returns raw mapping rows for the requested columns. fields is a comma-separated column list; unknown column names are rejected.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *fieldsQuery) (*struct {
		Body ProductValuesResponse `json:"body"`
	}, error) {
		rows, meta, err := q.ProductValues(ctx, input.Fields, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProductValuesResponse `json:"body"`
		}{Body: ProductValuesResponse{MetaResponse: metaResponse(meta), Results: rows}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "products-values-list",
		Method:      http.MethodGet,
		Path:        "/products/values-list",
		Summary:     "Products as positional tuples",
		Description: "Like the values endpoint but each row is a positional array in the requested comma-separated column order.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *fieldsQuery) (*struct {
		Body ProductTuplesResponse `json:"body"`
	}, error) {
		rows, meta, err := q.ProductTuples(ctx, input.Fields, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProductTuplesResponse `json:"body"`
		}{Body: ProductTuplesResponse{MetaResponse: metaResponse(meta), Results: rows}}, nil
	})

	type termQuery struct {
		Term  string `query:"term"`
		Limit int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "products-indexed-search",
		Method:      http.MethodGet,
		Path:        "/products/indexed-search",
		Summary:     "Filter on the indexed product name column",
	}, func(ctx context.Context, input *termQuery) (*struct {
		Body ProductListResponse `json:"body"`
	}, error) {
		term := input.Term
		if term == "" {
			term = "Chai"
		}
		rows, meta, err := q.SearchIndexed(ctx, term, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProductListResponse `json:"body"`
		}{Body: ProductListResponse{MetaResponse: metaResponse(meta), Results: rows}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "products-non-indexed-search",
		Method:      http.MethodGet,
		Path:        "/products/non-indexed-search",
		Summary:     "Filter on the non-indexed quantity-per-unit column",
		Description: "Same lookup shape as the indexed search but against a column with no index, paying for a full table scan.",
	}, func(ctx context.Context, input *termQuery) (*struct {
		Body ProductListResponse `json:"body"`
	}, error) {
		term := input.Term
		if term == "" {
			term = "10 boxes x 20 bags"
		}
		rows, meta, err := q.SearchNonIndexed(ctx, term, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProductListResponse `json:"body"`
		}{Body: ProductListResponse{MetaResponse: metaResponse(meta), Results: rows}}, nil
	})
}

func registerCategories(api huma.API, q query.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "categories-deferred",
		Method:      http.MethodGet,
		Path:        "/categories/deferred",
		Summary:     "List categories without the long description column",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body CategoryListResponse `json:"body"`
	}, error) {
		rows, meta, err := q.CategoriesDeferred(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CategoryListResponse `json:"body"`
		}{Body: CategoryListResponse{MetaResponse: metaResponse(meta), Results: rows}}, nil
	})
}

func registerCached(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "heavy",
		Method:      http.MethodGet,
		Path:        "/heavy",
		Summary:     "Expensive computation behind the cache",
		Description: "The first call pays the simulated computation latency; subsequent calls within the TTL are served from cache.",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body HeavyResponse `json:"body"`
	}, error) {
		payload, err := cache.GetOrCompute(ctx, cfg.HeavyCache, "heavy_data", func(ctx context.Context) (HeavyResponse, error) {
			if err := sleepCtx(ctx, cfg.HeavyLatency); err != nil {
				return HeavyResponse{}, err
			}
			return HeavyResponse{Message: "Calculated data", Value: 42}, nil
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body HeavyResponse `json:"body"`
		}{Body: payload}, nil
	})

	// No limit parameter here: the whole listing lives under one fixed
	// key, and a caller-controlled limit would pin the first request's
	// size for everyone until the TTL lapses.
	huma.Register(api, huma.Operation{
		OperationID: "products-cached",
		Method:      http.MethodGet,
		Path:        "/products/cached",
		Summary:     "Projected product list behind the cache",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body CachedProductsResponse `json:"body"`
	}, error) {
		products, err := cache.GetOrCompute(ctx, cfg.ProductCache, "all_products", func(ctx context.Context) ([]query.ProductLightRow, error) {
			rows, _, err := cfg.Query.ProductsProjected(ctx, 0)
			return rows, err
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CachedProductsResponse `json:"body"`
		}{Body: CachedProductsResponse{Count: len(products), Products: products}}, nil
	})
}

func registerTasks(api huma.API, d *tasks.Dispatcher) {
	type dispatchInput struct {
		TaskName  string `path:"task_name"`
		ReportID  string `query:"report_id"`
		ImagePath string `query:"image_path"`
	}
	dispatch := func(ctx context.Context, input *dispatchInput) (*struct {
		Body TaskDispatchResponse `json:"body"`
	}, error) {
		args := map[string]string{}
		if input.ReportID != "" {
			args["report_id"] = input.ReportID
		}
		if input.ImagePath != "" {
			args["image_path"] = input.ImagePath
		}
		h, err := d.Enqueue(input.TaskName, args)
		if err != nil {
			return nil, handleError(err)
		}
		var msg string
		switch input.TaskName {
		case tasks.JobReport:
			id := input.ReportID
			if id == "" {
				id = "default_report"
			}
			msg = fmt.Sprintf("Report generation started for %s", id)
		case tasks.JobProcessImage:
			p := input.ImagePath
			if p == "" {
				p = "/default/path/image.jpg"
			}
			msg = fmt.Sprintf("Image processing started for %s", p)
		default:
			msg = fmt.Sprintf("Task %s started", input.TaskName)
		}
		return &struct {
			Body TaskDispatchResponse `json:"body"`
		}{Body: TaskDispatchResponse{TaskID: h.ID, Message: msg}}, nil
	}

	// The dispatch endpoint answers both verbs so it can be triggered
	// from a browser address bar as well as scripted clients.
	huma.Register(api, huma.Operation{
		OperationID:   "task-dispatch",
		Method:        http.MethodPost,
		Path:          "/tasks/{task_name}",
		Summary:       "Dispatch a background task",
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{http.StatusBadRequest},
	}, dispatch)
	huma.Register(api, huma.Operation{
		OperationID: "task-dispatch-get",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_name}",
		Summary:     "Dispatch a background task (browser-friendly)",
		Errors:      []int{http.StatusBadRequest},
	}, dispatch)

	type taskIDPath struct {
		TaskID string `path:"task_id"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "task-status",
		Method:      http.MethodGet,
		Path:        "/tasks/status/{task_id}",
		Summary:     "Poll a task's status",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *taskIDPath) (*struct {
		Body TaskStatusResponse `json:"body"`
	}, error) {
		status, err := d.Status(input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskStatusResponse `json:"body"`
		}{Body: TaskStatusResponse{TaskID: input.TaskID, Status: status}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "task-result",
		Method:      http.MethodGet,
		Path:        "/tasks/result/{task_id}",
		Summary:     "Fetch a completed task's result",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *taskIDPath) (*struct {
		Body TaskResultResponse `json:"body"`
	}, error) {
		result, err := d.Result(input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResultResponse `json:"body"`
		}{Body: TaskResultResponse{TaskID: input.TaskID, Result: result}}, nil
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
