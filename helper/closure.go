package helper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"zipline_manager/constants"
	"zipline_manager/database"
	"zipline_manager/model"
)

var (
	ErrNoReasons      = errors.New("closure needs at least one reason")
	ErrInvalidClosure = errors.New("closure date must be YYYY-MM-DD")
)

// closureRecord decodes every shape the closures document has held over time:
// a bare "2026-02-03", {"date", "reason"} and {"date", "reasons": [...]}.
type closureRecord model.Closure

func (r *closureRecord) UnmarshalJSON(data []byte) error {
	var date string
	if err := json.Unmarshal(data, &date); err == nil {
		*r = closureRecord{Date: date, Reasons: []string{constants.REASON_OTHER}}
		return nil
	}

	var legacy struct {
		Date    string   `json:"date"`
		Reason  string   `json:"reason"`
		Reasons []string `json:"reasons"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	reasons := legacy.Reasons
	if legacy.Reason != "" {
		reasons = append(reasons, legacy.Reason)
	}
	*r = closureRecord{Date: legacy.Date, Reasons: reasons}
	return nil
}

// DecodeClosures parses a closures document, either a bare array or an
// object wrapping it under "closures", and normalizes it.
func DecodeClosures(content []byte) ([]model.Closure, error) {
	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return []model.Closure{}, nil
	}

	var records []closureRecord
	if content[0] == '{' {
		var wrapped struct {
			Closures []closureRecord `json:"closures"`
		}
		if err := json.Unmarshal(content, &wrapped); err != nil {
			return nil, fmt.Errorf("decoding closures: %w", err)
		}
		records = wrapped.Closures
	} else if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("decoding closures: %w", err)
	}

	closures := make([]model.Closure, 0, len(records))
	for _, record := range records {
		closures = append(closures, model.Closure(record))
	}
	return NormalizeClosures(closures), nil
}

// NormalizeClosures returns one closure per valid date, sorted by date, with
// known reasons only. Unknown reasons become "other"; duplicate dates merge.
func NormalizeClosures(closures []model.Closure) []model.Closure {
	byDate := map[string]map[string]bool{}
	for _, closure := range closures {
		date := strings.TrimSpace(closure.Date)
		if _, err := time.Parse(constants.DATE_LAYOUT, date); err != nil {
			logrus.WithField("date", closure.Date).Warn("dropping closure with unreadable date")
			continue
		}
		reasons, ok := byDate[date]
		if !ok {
			reasons = map[string]bool{}
			byDate[date] = reasons
		}
		for _, reason := range closure.Reasons {
			reasons[canonicalReason(reason)] = true
		}
	}

	normalized := make([]model.Closure, 0, len(byDate))
	for date, set := range byDate {
		reasons := []string{}
		for _, reason := range constants.CLOSURE_REASONS {
			if set[reason] {
				reasons = append(reasons, reason)
			}
		}
		if len(reasons) == 0 {
			reasons = append(reasons, constants.REASON_OTHER)
		}
		normalized = append(normalized, model.Closure{Date: date, Reasons: reasons})
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i].Date < normalized[j].Date })
	return normalized
}

func canonicalReason(reason string) string {
	reason = strings.ToLower(strings.TrimSpace(reason))
	if slices.Contains(constants.CLOSURE_REASONS, reason) {
		return reason
	}
	return constants.REASON_OTHER
}

// ClosureStore reads and publishes the exceptional closures document.
// Writes are not retried: a stale revision goes back to the administrator.
type ClosureStore struct {
	docs database.DocumentStore
	path string
}

func NewClosureStore(docs database.DocumentStore, path string) *ClosureStore {
	return &ClosureStore{docs: docs, path: path}
}

// Load returns the normalized closures and the revision they were read at.
// A missing document is an empty list with no revision.
func (s *ClosureStore) Load(ctx context.Context) ([]model.Closure, string, error) {
	doc, err := s.docs.Get(ctx, s.path)
	if errors.Is(err, database.ErrNotFound) {
		return []model.Closure{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading closures: %w", err)
	}
	closures, err := DecodeClosures(doc.Content)
	if err != nil {
		return nil, "", err
	}
	return closures, doc.Revision, nil
}

// Toggle re-opens date when it is closed, otherwise closes it for reasons.
func (s *ClosureStore) Toggle(ctx context.Context, date string, reasons []string) (model.ToggleClosureResult, error) {
	if _, err := time.Parse(constants.DATE_LAYOUT, date); err != nil {
		return model.ToggleClosureResult{}, ErrInvalidClosure
	}

	closures, revision, err := s.Load(ctx)
	if err != nil {
		return model.ToggleClosureResult{}, err
	}

	result := model.ToggleClosureResult{}
	idx := slices.IndexFunc(closures, func(c model.Closure) bool { return c.Date == date })
	if idx >= 0 {
		closures = slices.Delete(closures, idx, idx+1)
	} else {
		if len(reasons) == 0 {
			return model.ToggleClosureResult{}, ErrNoReasons
		}
		closures = NormalizeClosures(append(closures, model.Closure{Date: date, Reasons: reasons}))
		added := closures[slices.IndexFunc(closures, func(c model.Closure) bool { return c.Date == date })]
		result.Closed = true
		result.Closure = &added
	}

	newRevision, err := s.write(ctx, closures, revision, toggleMessage(date, result.Closed))
	if err != nil {
		return model.ToggleClosureResult{}, err
	}
	result.Closures = closures
	result.Revision = newRevision
	return result, nil
}

// Publish replaces the whole list. An empty revision publishes over whatever
// is current; otherwise the revision must still match.
func (s *ClosureStore) Publish(ctx context.Context, closures []model.Closure, revision string) (model.ClosureList, error) {
	for _, closure := range closures {
		if _, err := time.Parse(constants.DATE_LAYOUT, closure.Date); err != nil {
			return model.ClosureList{}, fmt.Errorf("%w: %q", ErrInvalidClosure, closure.Date)
		}
		if len(closure.Reasons) == 0 {
			return model.ClosureList{}, fmt.Errorf("%w: %s", ErrNoReasons, closure.Date)
		}
	}
	normalized := NormalizeClosures(closures)

	if revision == "" {
		doc, err := s.docs.Get(ctx, s.path)
		switch {
		case errors.Is(err, database.ErrNotFound):
		case err != nil:
			return model.ClosureList{}, fmt.Errorf("reading closures revision: %w", err)
		default:
			revision = doc.Revision
		}
	}

	message := fmt.Sprintf("Publish %d closure(s)", len(normalized))
	newRevision, err := s.write(ctx, normalized, revision, message)
	if err != nil {
		return model.ClosureList{}, err
	}
	return model.ClosureList{Closures: normalized, Revision: newRevision}, nil
}

func (s *ClosureStore) write(ctx context.Context, closures []model.Closure, revision, message string) (string, error) {
	content, err := json.MarshalIndent(closures, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding closures: %w", err)
	}
	newRevision, err := s.docs.Put(ctx, s.path, content, revision, message)
	if err != nil {
		return "", fmt.Errorf("publishing closures: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"path":     s.path,
		"count":    len(closures),
		"revision": newRevision,
	}).Info(message)
	return newRevision, nil
}

func toggleMessage(date string, closed bool) string {
	if closed {
		return "Close " + date
	}
	return "Reopen " + date
}
