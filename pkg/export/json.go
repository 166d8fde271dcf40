// Package export reads and writes the task list in JSON, CSV and workbook form.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/model"
)

// Skipped describes an import record that was left out.
type Skipped struct {
	Record int // 1-based record (JSON) or line (CSV) number
	Reason string
}

func (s Skipped) String() string {
	return fmt.Sprintf("record %d: %s", s.Record, s.Reason)
}

// ReadJSON decodes an array of task records. Records that fail to decode or
// validate are skipped and reported; only a malformed document is an error.
func ReadJSON(r io.Reader) ([]model.Task, []Skipped, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return []model.Task{}, nil, nil
		}
		return nil, nil, errors.Wrap(errors.KindImport, err, "malformed task JSON")
	}

	tasks := make([]model.Task, 0, len(raw))
	var skipped []Skipped
	for i, msg := range raw {
		var t model.Task
		if err := json.Unmarshal(msg, &t); err != nil {
			skipped = append(skipped, Skipped{Record: i + 1, Reason: err.Error()})
			continue
		}
		t.Normalize()
		if err := t.Validate(); err != nil {
			skipped = append(skipped, Skipped{Record: i + 1, Reason: err.Error()})
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, skipped, nil
}

// WriteJSON encodes tasks as an indented array. An empty list encodes as [].
func WriteJSON(w io.Writer, tasks []model.Task) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	return encoder.Encode(model.Clone(tasks))
}
