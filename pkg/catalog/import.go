package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/repository"
)

// Import modes.
const (
	// ImportOverwrite clears the catalog, images included, before
	// loading the file.
	ImportOverwrite = "overwrite"
	// ImportAppend adds the file's rows to the existing catalog.
	ImportAppend = "append"
)

// importColumns is the expected CSV header. tags is a
// semicolon-separated list.
var importColumns = []string{
	"title", "description", "price", "purchasePrice",
	"stockQuantity", "tags", "vendorEmail", "vendorPhone",
}

// Import loads products from a CSV stream. Rows that fail validation
// are skipped and logged; the import fails only when no row survives.
func (s *Service) Import(ctx context.Context, src io.Reader, mode string) (*repository.Result, error) {
	if mode != ImportOverwrite && mode != ImportAppend {
		return nil, apperror.BadRequest("import mode must be overwrite or append")
	}

	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperror.BadRequest("import file is empty or unreadable")
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []map[string]interface{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperror.BadRequest(fmt.Sprintf("import file is malformed at line %d", line))
		}
		row, err := parseRow(record, index)
		if err != nil {
			s.logger.Warn("skipping import row", "line", line, "error", err)
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, apperror.BadRequest("import file contained no valid products")
	}

	if mode == ImportOverwrite {
		if _, err := s.repo.DeleteAll(ctx); err != nil {
			return nil, err
		}
	}

	imported := 0
	for _, row := range rows {
		data, err := s.create.Validate(ctx, row)
		if err != nil {
			s.logger.Warn("skipping invalid import row", "title", row["title"], "error", err)
			continue
		}
		if _, ok := data["isFeatured"]; !ok {
			data["isFeatured"] = false
		}
		if _, ok := data["isPublished"]; !ok {
			data["isPublished"] = true
		}
		if _, err := s.repo.Create(ctx, repository.Record(data)); err != nil {
			s.logger.Warn("skipping unpersistable import row", "title", row["title"], "error", err)
			continue
		}
		imported++
	}

	if imported == 0 {
		return nil, apperror.BadRequest("import file contained no valid products")
	}

	return &repository.Result{
		Message: fmt.Sprintf("%d products imported successfully", imported),
		Status:  http.StatusCreated,
	}, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"title", "description", "price", "stockQuantity"} {
		if _, ok := index[required]; !ok {
			return nil, apperror.BadRequest("import file is missing column: " + required)
		}
	}
	return index, nil
}

func parseRow(record []string, index map[string]int) (map[string]interface{}, error) {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	title := cell("title")
	if title == "" {
		return nil, fmt.Errorf("title is empty")
	}

	price, err := strconv.ParseFloat(cell("price"), 64)
	if err != nil {
		return nil, fmt.Errorf("price is not a number")
	}
	stock, err := strconv.ParseInt(cell("stockQuantity"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("stockQuantity is not an integer")
	}

	row := map[string]interface{}{
		"title":         title,
		"description":   cell("description"),
		"price":         price,
		"stockQuantity": float64(stock),
	}
	if raw := cell("purchasePrice"); raw != "" {
		purchase, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("purchasePrice is not a number")
		}
		row["purchasePrice"] = purchase
	}
	if raw := cell("tags"); raw != "" {
		var tags []interface{}
		for _, tag := range strings.Split(raw, ";") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		row["tags"] = tags
	}
	if raw := cell("vendorEmail"); raw != "" {
		row["vendorEmail"] = raw
	}
	if raw := cell("vendorPhone"); raw != "" {
		row["vendorPhone"] = raw
	}
	return row, nil
}
