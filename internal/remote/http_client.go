package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"

	"github.com/MKhiriev/go-workout-sync/internal/config"
	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/models"
)

// httpClient is the resty-backed [Client] implementation for the cloud
// record store's REST API.
type httpClient struct {
	client *resty.Client
	logger *logger.Logger
}

func NewHTTPClient(cfg config.Remote, log *logger.Logger) Client {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Content-Type", "application/json")

	if cfg.Token != "" {
		cli.SetAuthToken(cfg.Token)
	}

	return &httpClient{client: cli, logger: log}
}

func (h *httpClient) Initialize(ctx context.Context) (bool, error) {
	if err := h.checkToken(); err != nil {
		return false, err
	}

	resp, err := h.client.R().
		SetContext(ctx).
		Get("/api/status")
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return false, err
	}

	return gjson.GetBytes(resp.Body(), "available").Bool(), nil
}

func (h *httpClient) SaveRecord(ctx context.Context, record models.RemoteRecord) (models.RemoteRecord, error) {
	if err := h.checkToken(); err != nil {
		return models.RemoteRecord{}, err
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"record_name": record.RecordName,
			"record_type": record.RecordType,
			"fields":      record.Fields,
		}).
		Post("/api/records")
	if err != nil {
		return models.RemoteRecord{}, fmt.Errorf("%w: save record request: %w", ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteRecord{}, err
	}

	return recordFromJSON(gjson.ParseBytes(resp.Body())), nil
}

func (h *httpClient) BatchSaveRecords(ctx context.Context, records []models.RemoteRecord) ([]models.RemoteRecord, error) {
	if len(records) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds ceiling of %d", ErrMalformedPayload, len(records), MaxBatchSize)
	}
	if err := h.checkToken(); err != nil {
		return nil, err
	}

	payload := make([]map[string]any, 0, len(records))
	for _, record := range records {
		payload = append(payload, map[string]any{
			"record_name": record.RecordName,
			"record_type": record.RecordType,
			"fields":      record.Fields,
		})
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"records": payload}).
		Post("/api/records/batch")
	if err != nil {
		return nil, fmt.Errorf("%w: batch save request: %w", ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	saved := make([]models.RemoteRecord, 0, len(records))
	gjson.GetBytes(resp.Body(), "records").ForEach(func(_, value gjson.Result) bool {
		saved = append(saved, recordFromJSON(value))
		return true
	})

	return saved, nil
}

func (h *httpClient) FetchRecord(ctx context.Context, name string) (models.RemoteRecord, error) {
	if err := h.checkToken(); err != nil {
		return models.RemoteRecord{}, err
	}

	resp, err := h.client.R().
		SetContext(ctx).
		Get("/api/records/" + name)
	if err != nil {
		return models.RemoteRecord{}, fmt.Errorf("%w: fetch record request: %w", ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteRecord{}, err
	}

	return recordFromJSON(gjson.ParseBytes(resp.Body())), nil
}

func (h *httpClient) QueryRecords(ctx context.Context, recordType string, query RecordQuery) (models.QueryResult, error) {
	if err := h.checkToken(); err != nil {
		return models.QueryResult{}, err
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"record_type": recordType,
			"predicate":   query.Predicate,
			"limit":       query.Limit,
			"offset":      query.Offset,
		}).
		Post("/api/records/query")
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("%w: query records request: %w", ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.QueryResult{}, err
	}

	body := gjson.ParseBytes(resp.Body())
	result := models.QueryResult{HasMore: body.Get("has_more").Bool()}
	body.Get("records").ForEach(func(_, value gjson.Result) bool {
		result.Records = append(result.Records, recordFromJSON(value))
		return true
	})

	return result, nil
}

func (h *httpClient) FetchChanges(ctx context.Context, cursor string) (models.ChangeSet, error) {
	if err := h.checkToken(); err != nil {
		return models.ChangeSet{}, err
	}

	req := h.client.R().SetContext(ctx)
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}

	resp, err := req.Get("/api/changes")
	if err != nil {
		return models.ChangeSet{}, fmt.Errorf("%w: fetch changes request: %w", ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ChangeSet{}, err
	}

	body := gjson.ParseBytes(resp.Body())
	changes := models.ChangeSet{NewCursor: body.Get("new_cursor").String()}
	body.Get("changed").ForEach(func(_, value gjson.Result) bool {
		changes.Changed = append(changes.Changed, recordFromJSON(value))
		return true
	})
	body.Get("deleted_ids").ForEach(func(_, value gjson.Result) bool {
		changes.DeletedIDs = append(changes.DeletedIDs, value.String())
		return true
	})

	return changes, nil
}

func (h *httpClient) DeleteRecord(ctx context.Context, name string) (bool, error) {
	if err := h.checkToken(); err != nil {
		return false, err
	}

	resp, err := h.client.R().
		SetContext(ctx).
		Delete("/api/records/" + name)
	if err != nil {
		return false, fmt.Errorf("%w: delete record request: %w", ErrUnavailable, err)
	}
	// Deleting an absent record is a successful no-op.
	if resp.StatusCode() == 404 {
		return false, nil
	}
	if err = mapHTTPError(resp); err != nil {
		return false, err
	}

	return true, nil
}

// checkToken fails fast with [ErrUnavailable] when the configured bearer
// token is a JWT whose expiry has already passed. Opaque (non-JWT) tokens
// are passed through untouched and left for the server to judge.
func (h *httpClient) checkToken() error {
	token := h.client.Token
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil // not a JWT
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return fmt.Errorf("%w: auth token expired at %s", ErrUnavailable, exp.Format(time.RFC3339))
	}

	return nil
}

func recordFromJSON(value gjson.Result) models.RemoteRecord {
	record := models.RemoteRecord{
		RecordName: value.Get("record_name").String(),
		RecordType: value.Get("record_type").String(),
	}

	if fields, ok := value.Get("fields").Value().(map[string]any); ok {
		record.Fields = fields
	}

	if raw := value.Get("modification_date").String(); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			record.ModificationDate = ts
		}
	}

	return record
}
