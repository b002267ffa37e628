// Package capture lands the output of the remote brain-dump classifier as tasks.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cove/internal/engine"
)

// Classifier is the remote collaborator that buckets free text.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Result, error)
}

// TaskSuggestion is one task proposed for a directive input.
type TaskSuggestion struct {
	Title            string `json:"title"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	InterestLevel    string `json:"interestLevel"`
	EnergyRequired   string `json:"energyRequired"`
}

func (s TaskSuggestion) Interest() engine.InterestLevel { return engine.ParseLevel(s.InterestLevel) }
func (s TaskSuggestion) Energy() engine.EnergyLevel     { return engine.ParseLevel(s.EnergyRequired) }

// Result is the decoded classification.
type Result struct {
	Bucket          engine.Bucket    `json:"-"`
	Tasks           []TaskSuggestion `json:"tasks,omitempty"`
	ArchiveNote     string           `json:"archiveNote,omitempty"`
	VentingResponse string           `json:"ventingResponse,omitempty"`
}

type wireResult struct {
	Bucket string `json:"bucket"`
	Result
}

var ErrEmptyResult = errors.New("empty classification")

// Parse decodes a classifier reply, tolerating markdown code fences and upper-case buckets.
func Parse(raw string) (*Result, error) {
	clean := strings.ReplaceAll(raw, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil, ErrEmptyResult
	}

	var w wireResult
	if err := json.Unmarshal([]byte(clean), &w); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	bucket, err := engine.ParseBucket(w.Bucket)
	if err != nil {
		return nil, err
	}
	res := w.Result
	res.Bucket = bucket
	return &res, nil
}

// Land turns a classification into pending backlog tasks. Directive results yield one
// task per suggestion; archive and venting results keep the note as a single task in
// their bucket so nothing is lost.
func Land(r *Result, now time.Time) ([]*engine.Task, error) {
	if r == nil {
		return nil, ErrEmptyResult
	}

	switch r.Bucket {
	case engine.BucketDirective:
		var out []*engine.Task
		for _, s := range r.Tasks {
			in := engine.NewTaskInput{
				Title:    s.Title,
				Bucket:   engine.BucketDirective,
				Interest: s.Interest(),
				Energy:   s.Energy(),
			}
			if s.EstimatedMinutes > 0 {
				est := engine.ClampEstimate(s.EstimatedMinutes)
				in.EstimatedMinutes = &est
			}
			t, err := engine.NewTask(in, now)
			if err != nil {
				return nil, fmt.Errorf("land %q: %w", s.Title, err)
			}
			out = append(out, t)
		}
		return out, nil

	case engine.BucketArchive:
		return landNote(r.ArchiveNote, "Note", engine.BucketArchive, now)

	case engine.BucketVenting:
		return landNote(r.VentingResponse, "Vent", engine.BucketVenting, now)

	default:
		return nil, fmt.Errorf("invalid bucket: %q", r.Bucket)
	}
}

func landNote(text, fallbackTitle string, bucket engine.Bucket, now time.Time) ([]*engine.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	title := firstLine(text, 80)
	if title == "" {
		title = fallbackTitle
	}
	t, err := engine.NewTask(engine.NewTaskInput{Title: title, Description: text, Bucket: bucket}, now)
	if err != nil {
		return nil, err
	}
	return []*engine.Task{t}, nil
}

func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
