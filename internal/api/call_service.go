package api

import (
	"context"

	"callaudit/internal/records"
)

// CallStore abstracts record persistence interactions needed by the API.
type CallStore interface {
	List(ctx context.Context, filter records.ListFilter) ([]*records.CallRecord, error)
	Count(ctx context.Context, filter records.ListFilter) (int, error)
	GetByID(ctx context.Context, id string) (*records.CallRecord, error)
	GetByCallID(ctx context.Context, callID string) (*records.CallRecord, error)
	Stats(ctx context.Context) (*records.Stats, error)
	WorkerStatuses(ctx context.Context) ([]records.WorkerStatus, error)
	ResetStage(ctx context.Context, id string, stage records.Stage) error
	ResetStageBackoff(ctx context.Context, id string, stage records.Stage) error
}

// CallService exposes call record operations returning API DTOs.
type CallService struct {
	store CallStore
}

// NewCallService constructs a CallService around the provided store.
func NewCallService(store CallStore) *CallService {
	if store == nil {
		return nil
	}
	return &CallService{store: store}
}

// List returns a page of calls matching the filter plus the unpaged total.
func (s *CallService) List(ctx context.Context, filter records.ListFilter) (CallListResponse, error) {
	if s == nil || s.store == nil {
		return CallListResponse{}, nil
	}
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return CallListResponse{}, err
	}
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return CallListResponse{}, err
	}
	return CallListResponse{
		Calls:  FromCallRecords(items),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// Describe fetches a single call record by its row id, falling back to the
// provider call id so operators can use either identifier.
func (s *CallService) Describe(ctx context.Context, id string) (*Call, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record, err = s.store.GetByCallID(ctx, id)
		if err != nil || record == nil {
			return nil, err
		}
	}
	dto := FromCallRecord(record)
	return &dto, nil
}

// Stats returns pipeline summary counts.
func (s *CallService) Stats(ctx context.Context) (Stats, error) {
	if s == nil || s.store == nil {
		return Stats{}, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return FromStats(stats), nil
}

// Workers returns worker heartbeat rows.
func (s *CallService) Workers(ctx context.Context) ([]WorkerStatus, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	statuses, err := s.store.WorkerStatuses(ctx)
	if err != nil {
		return nil, err
	}
	return FromWorkerStatuses(statuses), nil
}
