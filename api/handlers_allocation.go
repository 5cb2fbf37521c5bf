package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/costs"
	"github.com/warp/unit-finance/payroll"
)

// =============================================================================
// RENDERING CONTEXT
// =============================================================================

// view bundles what rendering an allocation needs: recipient names and a
// calculator per period.
type view struct {
	dir  allocation.Directory
	calc func(allocation.Period) allocation.Calculator
}

func (h *Handler) newView(ctx context.Context) (view, error) {
	dir, err := h.Store.Directory(ctx)
	if err != nil {
		return view{}, err
	}
	if !h.UseCalendar {
		calc := allocation.Calculator{WorkingDays: h.WorkingDays}
		return view{dir: dir, calc: func(allocation.Period) allocation.Calculator { return calc }}, nil
	}
	cal, err := h.Store.Calendar(ctx)
	if err != nil {
		return view{}, err
	}
	return view{
		dir:  dir,
		calc: func(p allocation.Period) allocation.Calculator { return allocation.ForPeriod(p, cal) },
	}, nil
}

func (v view) allocation(owner allocation.Owner, set allocation.Set) AllocationDTO {
	return toAllocationDTO(owner, allocation.Resolve(set, v.dir), v.calc(set.Period()))
}

func (v view) employee(e payroll.Employee) EmployeeDTO {
	e.Allocation = allocation.Resolve(e.Allocation, v.dir)
	return toEmployeeDTO(e, v.calc(e.Period()))
}

func (v view) fixedCost(c costs.FixedCost) FixedCostDTO {
	c.Allocation = allocation.Resolve(c.Allocation, v.dir)
	return toFixedCostDTO(c, v.calc(c.Period()))
}

// =============================================================================
// ALLOCATION ENDPOINTS
// =============================================================================

// allocationRoutes mounts the editing endpoints of one owner kind:
//
//	GET    /                     set, shares and completeness
//	POST   /records              add a record
//	PUT    /records/{index}      change one field of one record
//	DELETE /records/{index}      remove a record
//	PUT    /method               switch every record's method (fixed costs)
func (h *Handler) allocationRoutes(kind allocation.OwnerKind) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.GetAllocation(kind))
		r.Post("/records", h.AddAllocationRecord(kind))
		r.Put("/records/{index}", h.UpdateAllocationRecord(kind))
		r.Delete("/records/{index}", h.DeleteAllocationRecord(kind))
		if kind == allocation.OwnerFixedCost {
			r.Put("/method", h.SwitchAllocationMethod(kind))
		}
	}
}

// GetAllocation returns the owner's allocation with every computed share.
func (h *Handler) GetAllocation(kind allocation.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner := allocation.Owner{Kind: kind, ID: chi.URLParam(r, "id")}

		set, err := h.Store.LoadSet(ctx, owner)
		if err != nil {
			h.handleError(w, r, "Allocation not found", err)
			return
		}
		v, err := h.newView(ctx)
		if err != nil {
			h.handleError(w, r, "Failed to load allocation context", err)
			return
		}
		writeJSON(w, http.StatusOK, v.allocation(owner, set))
	}
}

// AddAllocationRecord appends a zero-valued record.
func (h *Handler) AddAllocationRecord(kind allocation.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddRecordRequest
		if err := decodeJSON(r, &req); err != nil {
			h.handleError(w, r, "Invalid request body", err)
			return
		}
		var method allocation.Method
		if req.Method != "" {
			m, err := allocation.ParseMethod(req.Method)
			if err != nil {
				h.handleError(w, r, "Invalid method", err)
				return
			}
			method = m
		}

		h.editAllocation(w, r, kind, http.StatusCreated, func(ed allocation.Editor, set allocation.Set) (allocation.Set, error) {
			return ed.Add(set, allocation.RecipientID(req.RecipientID), method)
		})
	}
}

// UpdateAllocationRecord changes one field of the record at {index}.
func (h *Handler) UpdateAllocationRecord(kind allocation.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := recordIndex(r)
		if err != nil {
			h.handleError(w, r, "Invalid record index", err)
			return
		}
		var req UpdateRecordRequest
		if err := decodeJSON(r, &req); err != nil {
			h.handleError(w, r, "Invalid request body", err)
			return
		}
		update, err := parseUpdate(req)
		if err != nil {
			h.handleError(w, r, "Invalid update", err)
			return
		}

		h.editAllocation(w, r, kind, http.StatusOK, func(ed allocation.Editor, set allocation.Set) (allocation.Set, error) {
			return ed.Update(set, index, update)
		})
	}
}

// DeleteAllocationRecord removes the record at {index}.
func (h *Handler) DeleteAllocationRecord(kind allocation.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := recordIndex(r)
		if err != nil {
			h.handleError(w, r, "Invalid record index", err)
			return
		}

		h.editAllocation(w, r, kind, http.StatusOK, func(ed allocation.Editor, set allocation.Set) (allocation.Set, error) {
			return ed.Remove(set, index)
		})
	}
}

// SwitchAllocationMethod changes the method of every record at once.
func (h *Handler) SwitchAllocationMethod(kind allocation.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SwitchMethodRequest
		if err := decodeJSON(r, &req); err != nil {
			h.handleError(w, r, "Invalid request body", err)
			return
		}
		method, err := allocation.ParseMethod(req.Method)
		if err != nil {
			h.handleError(w, r, "Invalid method", err)
			return
		}

		h.editAllocation(w, r, kind, http.StatusOK, func(ed allocation.Editor, set allocation.Set) (allocation.Set, error) {
			return ed.SwitchMethod(set, method)
		})
	}
}

// editAllocation loads the owner's set, applies edit and saves the result.
// The edit works on a copy; nothing is saved when it fails.
func (h *Handler) editAllocation(
	w http.ResponseWriter,
	r *http.Request,
	kind allocation.OwnerKind,
	status int,
	edit func(allocation.Editor, allocation.Set) (allocation.Set, error),
) {
	ctx := r.Context()
	owner := allocation.Owner{Kind: kind, ID: chi.URLParam(r, "id")}

	h.editMu.Lock()
	defer h.editMu.Unlock()

	set, err := h.Store.LoadSet(ctx, owner)
	if err != nil {
		h.handleError(w, r, "Allocation not found", err)
		return
	}
	v, err := h.newView(ctx)
	if err != nil {
		h.handleError(w, r, "Failed to load allocation context", err)
		return
	}

	updated, err := edit(editorFor(kind, v.dir), allocation.Resolve(set, v.dir))
	if err != nil {
		h.handleError(w, r, "Invalid allocation edit", err)
		return
	}
	if err := h.Store.SaveSet(ctx, owner, updated); err != nil {
		h.handleError(w, r, "Failed to save allocation", err)
		return
	}

	h.Log.Debug().
		Str("owner", owner.String()).
		Int("records", updated.Len()).
		Msg("allocation updated")
	writeJSON(w, status, v.allocation(owner, updated))
}

func editorFor(kind allocation.OwnerKind, dir allocation.Directory) allocation.Editor {
	if kind == allocation.OwnerFixedCost {
		return costs.Editor(dir)
	}
	return payroll.Editor(dir)
}

func recordIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: record index %q", errInvalidRequest, raw)
	}
	return index, nil
}

// parseUpdate decodes the value of an UpdateRecordRequest according to its field.
func parseUpdate(req UpdateRecordRequest) (allocation.Update, error) {
	field, err := allocation.ParseField(req.Field)
	if err != nil {
		return allocation.Update{}, err
	}
	if len(req.Value) == 0 || bytes.Equal(bytes.TrimSpace(req.Value), []byte("null")) {
		return allocation.Update{}, fmt.Errorf("%w: value is required", errInvalidRequest)
	}

	switch field {
	case allocation.FieldRecipient:
		var id string
		if err := json.Unmarshal(req.Value, &id); err != nil || id == "" {
			return allocation.Update{}, fmt.Errorf("%w: recipient must be a non-empty string", errInvalidRequest)
		}
		return allocation.SetRecipient(allocation.RecipientID(id), ""), nil
	case allocation.FieldMethod:
		var m allocation.Method
		if err := json.Unmarshal(req.Value, &m); err != nil {
			return allocation.Update{}, invalid(err)
		}
		return allocation.SetMethod(m), nil
	default:
		var value decimal.Decimal
		if err := json.Unmarshal(req.Value, &value); err != nil {
			return allocation.Update{}, fmt.Errorf("%w: value: %w", errInvalidRequest, err)
		}
		return allocation.SetValue(value), nil
	}
}
