package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/model"
)

// CSVHeader is the column set shared by CSV import and export.
var CSVHeader = []string{"name", "epic_number", "start_date", "end_date", "color", "priority", "status", "is_milestone"}

// ReadCSV imports one task per row, matching columns by header name.
// Rows with unparseable dates or other invalid fields are skipped and reported.
func ReadCSV(r io.Reader) ([]model.Task, []Skipped, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []model.Task{}, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.KindImport, err, "malformed CSV header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	tasks := []model.Task{}
	var skipped []Skipped
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			skipped = append(skipped, Skipped{Record: line, Reason: err.Error()})
			continue
		}

		start, err := model.ParseDate(field(row, "start_date"))
		if err != nil {
			skipped = append(skipped, Skipped{Record: line, Reason: "start_date: " + err.Error()})
			continue
		}
		end, err := model.ParseDate(field(row, "end_date"))
		if err != nil {
			skipped = append(skipped, Skipped{Record: line, Reason: "end_date: " + err.Error()})
			continue
		}

		t := model.Task{
			Name:        field(row, "name"),
			EpicNumber:  field(row, "epic_number"),
			StartDate:   start,
			EndDate:     end,
			Color:       field(row, "color"),
			Priority:    model.Priority(field(row, "priority")),
			Status:      model.Status(field(row, "status")),
			IsMilestone: strings.EqualFold(field(row, "is_milestone"), "true"),
		}
		t.Normalize()
		if err := t.Validate(); err != nil {
			skipped = append(skipped, Skipped{Record: line, Reason: err.Error()})
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, skipped, nil
}

// WriteCSV writes tasks with CSVHeader columns; is_milestone is "True" or "False".
func WriteCSV(w io.Writer, tasks []model.Task) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		milestone := "False"
		if t.IsMilestone {
			milestone = "True"
		}
		record := []string{
			t.Name,
			t.EpicNumber,
			t.StartDate.String(),
			t.EndDate.String(),
			t.Color,
			string(t.Priority),
			string(t.Status),
			milestone,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row for %q: %w", t.Name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
