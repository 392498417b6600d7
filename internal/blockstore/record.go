package blockstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/parser"
)

// record is the durable form of one block.
type record struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Time    string   `json:"time"`
	Days    []string `json:"days"`
	Handles []string `json:"handles"`
}

func toRecord(b *model.TimeBlock, anchor time.Time) record {
	handles := make([]string, len(b.Handles))
	for i, h := range b.Handles {
		handles[i] = string(h)
	}
	return record{
		ID:      b.ID,
		Label:   b.Label,
		Time:    parser.FormatClockStamp(b.Time, anchor),
		Days:    b.Days.Codes(),
		Handles: handles,
	}
}

func (r record) block() (*model.TimeBlock, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	t, err := parser.ParseClockStamp(r.Time)
	if err != nil {
		return nil, err
	}
	days, err := parser.ParseWeekdayCodes(r.Days)
	if err != nil {
		return nil, err
	}
	if days.Empty() {
		return nil, errors.ErrNoDays
	}
	handles := make([]model.Handle, len(r.Handles))
	for i, h := range r.Handles {
		handles[i] = model.Handle(h)
	}
	return &model.TimeBlock{
		ID:      r.ID,
		Label:   r.Label,
		Time:    t,
		Days:    days,
		Handles: handles,
	}, nil
}

// encode serializes blocks in order as a JSON array.
func encode(blocks []*model.TimeBlock, anchor time.Time) ([]byte, error) {
	records := make([]record, len(blocks))
	for i, b := range blocks {
		records[i] = toRecord(b, anchor)
	}
	return json.Marshal(records)
}

// decodeIssue describes one record that could not be decoded.
type decodeIssue struct {
	Index int
	Err   error
}

// decode parses a stored blob. Each element is decoded on its own so one bad
// record does not hide the others. A blob that is not a JSON array returns a
// non-nil error and no blocks.
func decode(data []byte) ([]*model.TimeBlock, []decodeIssue, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	var (
		blocks []*model.TimeBlock
		issues []decodeIssue
		seen   = make(map[string]bool, len(raw))
	)
	for i, elem := range raw {
		var r record
		if err := json.Unmarshal(elem, &r); err != nil {
			issues = append(issues, decodeIssue{Index: i, Err: err})
			continue
		}
		b, err := r.block()
		if err != nil {
			issues = append(issues, decodeIssue{Index: i, Err: err})
			continue
		}
		if seen[b.ID] {
			issues = append(issues, decodeIssue{Index: i, Err: fmt.Errorf("duplicate id %s", b.ID)})
			continue
		}
		seen[b.ID] = true
		blocks = append(blocks, b)
	}
	return blocks, issues, nil
}
