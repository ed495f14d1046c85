package checklist

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/ordering"
	"github.com/vacek-detailing/studio-api/internal/store"
)

type storeProvider interface {
	CreateChecklist(ctx context.Context, name string) (store.Checklist, error)
	GetChecklist(ctx context.Context, id string) (store.Checklist, error)
	ListChecklists(ctx context.Context) ([]store.Checklist, error)
	DeleteChecklist(ctx context.Context, id string) error
	AddChecklistItem(ctx context.Context, checklistID, label string) (store.ChecklistItem, error)
	ToggleChecklistItem(ctx context.Context, itemID string) (bool, error)
	DeleteChecklistItem(ctx context.Context, itemID string) error
	SetChecklistPositions(ctx context.Context, checklistID string, orderedItemIDs []string) error
}

// Service manages job checklists and their item ordering.
type Service struct {
	store storeProvider
}

// NewService constructs a Service instance.
func NewService(st storeProvider) (*Service, error) {
	if st == nil {
		return nil, errors.New("checklist: store is required")
	}
	return &Service{store: st}, nil
}

// List is the API shape of a checklist.
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}

// Item is one task on a checklist.
type Item struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// Create adds an empty named checklist.
func (s *Service) Create(ctx context.Context, name string) (List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return List{}, common.Validation("name", "name is required")
	}
	row, err := s.store.CreateChecklist(ctx, name)
	if err != nil {
		return List{}, translateErr(err, "checklist")
	}
	return toList(row), nil
}

// Get loads one checklist with its items in display order.
func (s *Service) Get(ctx context.Context, id string) (List, error) {
	row, err := s.store.GetChecklist(ctx, id)
	if err != nil {
		return List{}, translateErr(err, "checklist")
	}
	return toList(row), nil
}

// ListAll returns all checklists without their items.
func (s *Service) ListAll(ctx context.Context) ([]List, error) {
	rows, err := s.store.ListChecklists(ctx)
	if err != nil {
		return nil, translateErr(err, "checklist")
	}
	lists := make([]List, 0, len(rows))
	for _, row := range rows {
		lists = append(lists, toList(row))
	}
	return lists, nil
}

// Delete removes a checklist and its items.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteChecklist(ctx, id); err != nil {
		return translateErr(err, "checklist")
	}
	return nil
}

// AddItem appends a task at the end of a checklist.
func (s *Service) AddItem(ctx context.Context, checklistID, label string) (Item, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Item{}, common.Validation("label", "label is required")
	}
	row, err := s.store.AddChecklistItem(ctx, checklistID, label)
	if err != nil {
		return Item{}, translateErr(err, "checklist")
	}
	return Item{ID: row.ID, Label: row.Label, Done: row.Done}, nil
}

// ToggleItem flips a task's done state and returns the new value.
func (s *Service) ToggleItem(ctx context.Context, itemID string) (bool, error) {
	done, err := s.store.ToggleChecklistItem(ctx, itemID)
	if err != nil {
		return false, translateErr(err, "checklist item")
	}
	return done, nil
}

// DeleteItem removes one task.
func (s *Service) DeleteItem(ctx context.Context, itemID string) error {
	if err := s.store.DeleteChecklistItem(ctx, itemID); err != nil {
		return translateErr(err, "checklist item")
	}
	return nil
}

// MoveItem swaps a task with its neighbour and persists the new positions.
func (s *Service) MoveItem(ctx context.Context, checklistID, itemID string, dir ordering.Direction) (List, error) {
	list, err := s.store.GetChecklist(ctx, checklistID)
	if err != nil {
		return List{}, translateErr(err, "checklist")
	}

	keys := make([]string, len(list.Items))
	index := -1
	for i, item := range list.Items {
		keys[i] = item.ID
		if item.ID == itemID {
			index = i
		}
	}
	if index < 0 {
		return List{}, common.NotFound("checklist item")
	}

	cur := ordering.Normalize(nil, keys)
	next := ordering.MoveAdjacent(cur, keys, index, dir)
	ordered := ordering.DeriveSequence(next, keys, func(k string) string { return k })
	if err := s.store.SetChecklistPositions(ctx, checklistID, ordered); err != nil {
		return List{}, translateErr(err, "checklist")
	}
	return s.Get(ctx, checklistID)
}

func toList(row store.Checklist) List {
	list := List{ID: row.ID, Name: row.Name, Items: make([]Item, 0, len(row.Items)), CreatedAt: row.CreatedAt}
	for _, item := range row.Items {
		list.Items = append(list.Items, Item{ID: item.ID, Label: item.Label, Done: item.Done})
	}
	return list
}

func translateErr(err error, resource string) error {
	if errors.Is(err, store.ErrNotFound) {
		return common.NotFound(resource)
	}
	if common.IsAppError(err) {
		return err
	}
	return &common.AppError{Code: common.CodeInternal, Message: "checklist storage failure", HTTPStatus: http.StatusInternalServerError, Err: err}
}
