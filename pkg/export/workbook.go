package export

import (
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/timeline"
)

// SheetName is the worksheet the chart is written to.
const SheetName = "Gantt Chart"

// WorkbookHeader is the fixed column set preceding the week columns.
var WorkbookHeader = []string{"Task", "Epic #", "Start Date", "End Date", "Color", "Priority", "Status", "Is Milestone"}

// WriteWorkbook writes one row per task and one column per week of the whole
// list's axis. Occupied weeks hold "X" with the task color as cell fill.
func WriteWorkbook(w io.Writer, tasks []model.Task, log *slog.Logger) error {
	if len(tasks) == 0 {
		return errors.Validation("no tasks to export")
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	weeks := timeline.Axis(tasks)
	header := append([]string{}, WorkbookHeader...)
	for _, monday := range weeks {
		header = append(header, timeline.Week{Start: monday}.Label())
	}

	widths := make([]int, len(header))
	set := func(col, row int, v string) error {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if n := utf8.RuneCountInString(v); n > widths[col] {
			widths[col] = n
		}
		return f.SetCellValue(SheetName, cell, v)
	}

	for c, h := range header {
		if err := set(c, 1, h); err != nil {
			return err
		}
	}

	fills := make(map[string]int)
	for r, t := range tasks {
		row := r + 2
		milestone := "No"
		if t.IsMilestone {
			milestone = "Yes"
		}
		values := []string{t.Name, t.EpicNumber, t.StartDate.String(), t.EndDate.String(), t.Color,
			string(t.Priority), string(t.Status), milestone}
		for c, v := range values {
			if err := set(c, row, v); err != nil {
				return err
			}
		}

		style, ok := fillStyle(f, fills, t.Color, log)
		for i, monday := range weeks {
			if !timeline.Occupied(t, monday) {
				continue
			}
			col := len(WorkbookHeader) + i
			if err := set(col, row, "X"); err != nil {
				return err
			}
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
				return err
			}
		}
	}

	for c, width := range widths {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, float64(width+2)); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// fillStyle returns a cached solid-fill style for a #RRGGBB or #AARRGGBB color.
func fillStyle(f *excelize.File, cache map[string]int, color string, log *slog.Logger) (int, bool) {
	hex := strings.TrimPrefix(color, "#")
	switch len(hex) {
	case 6:
	case 8:
		hex = hex[2:]
	default:
		log.Warn("invalid color format for workbook", "color", color)
		return 0, false
	}
	if id, ok := cache[hex]; ok {
		return id, true
	}
	id, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#" + hex}},
	})
	if err != nil {
		log.Warn("could not create fill style", "color", color, "error", err)
		return 0, false
	}
	cache[hex] = id
	return id, true
}
