package contract

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"ccsledger/core/ledger"
	"ccsledger/core/storage"
)

func (c *Contract) registerQueryOps() {
	c.register(&Operation{
		Name:     "assetExists",
		ReadOnly: true,
		MinArgs:  1,
		Handler: func(tx *Tx, args []string) (interface{}, error) {
			return tx.HasState(args[0])
		},
	})
	c.register(&Operation{
		Name:     "getAssetByID",
		ReadOnly: true,
		MinArgs:  1,
		Handler: func(tx *Tx, args []string) (interface{}, error) {
			val, err := tx.GetState(args[0])
			if err != nil {
				if errors.Is(err, ledger.ErrNotFound) {
					return nil, ledger.NotFoundf("the asset %s does not exist", args[0])
				}
				return nil, err
			}
			return json.RawMessage(val), nil
		},
	})
	c.register(&Operation{
		Name:     "getAssetHistory",
		ReadOnly: true,
		MinArgs:  1,
		Handler: func(tx *Tx, args []string) (interface{}, error) {
			entries, err := tx.History(args[0])
			if err != nil {
				return nil, err
			}
			return entries, nil
		},
	})
	c.register(&Operation{
		Name:     "getAllAssets",
		ReadOnly: true,
		Handler: func(tx *Tx, args []string) (interface{}, error) {
			all, err := tx.AllState()
			if err != nil {
				return nil, err
			}
			if all == nil {
				all = []storage.KeyedValue{}
			}
			return all, nil
		},
	})
	c.register(&Operation{
		Name:     "GetHistoryByProjectId",
		ReadOnly: true,
		MinArgs:  1,
		Handler:  historyByProjectID,
	})
	c.register(&Operation{
		Name:     "queryRecordsByDateRange",
		ReadOnly: true,
		MinArgs:  2,
		Handler:  queryRecordsByDateRange,
	})
}

// historyByProjectID returns every record for a project, createdAt ascending,
// exhausting the project index page by page.
func historyByProjectID(tx *Tx, args []string) (interface{}, error) {
	projectID := args[0]
	if projectID == "" {
		return nil, ledger.Validationf("a projectId must be provided")
	}
	var out []storage.KeyedValue
	bookmark := ""
	for {
		page, err := tx.ByProject(projectID, tx.maxPageSize(), bookmark)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Values...)
		if page.Bookmark == "" {
			break
		}
		bookmark = page.Bookmark
	}
	if out == nil {
		out = []storage.KeyedValue{}
	}
	return out, nil
}

// pagedResult mirrors the paginated query envelope callers already consume.
type pagedResult struct {
	Data     []storage.KeyedValue `json:"data"`
	Metadata pageMetadata         `json:"metadata"`
}

type pageMetadata struct {
	FetchedRecordsCount int    `json:"fetchedRecordsCount"`
	Bookmark            string `json:"bookmark"`
}

// queryRecordsByDateRange scans records created inside [startDate, endDate],
// optionally narrowed to one project, one page per call.
// Args: startDate, endDate, projectId (may be empty), pageSize, bookmark.
func queryRecordsByDateRange(tx *Tx, args []string) (interface{}, error) {
	start, err := parseBoundary(args[0], false)
	if err != nil {
		return nil, err
	}
	end, err := parseBoundary(args[1], true)
	if err != nil {
		return nil, err
	}

	projectID := ""
	if len(args) > 2 {
		projectID = args[2]
	}
	pageSize := tx.maxPageSize()
	if len(args) > 3 && args[3] != "" {
		n, err := strconv.Atoi(args[3])
		if err != nil || n <= 0 {
			return nil, ledger.Validationf("pageSize must be a positive integer")
		}
		if n < pageSize {
			pageSize = n
		}
	}
	bookmark := ""
	if len(args) > 4 {
		bookmark = args[4]
	}

	page, err := tx.RangeByCreated(start, end, projectID, pageSize, bookmark)
	if err != nil {
		return nil, err
	}
	if page.Values == nil {
		page.Values = []storage.KeyedValue{}
	}
	return pagedResult{
		Data: page.Values,
		Metadata: pageMetadata{
			FetchedRecordsCount: page.FetchedCount,
			Bookmark:            page.Bookmark,
		},
	}, nil
}

// Accepted timestamp shapes for range boundaries.
var boundaryLayouts = []string{
	ledger.TimestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z",
}

// parseBoundary normalizes a caller-supplied boundary to the wire layout.
// A bare date expands to the start or end of that UTC day.
func parseBoundary(arg string, endOfDay bool) (string, error) {
	if arg == "" {
		return "", ledger.Validationf("both startDate and endDate must be provided")
	}
	if d, err := time.Parse("2006-01-02", arg); err == nil {
		if endOfDay {
			d = d.Add(24*time.Hour - time.Millisecond)
		}
		return ledger.FormatTimestamp(d), nil
	}
	for _, layout := range boundaryLayouts {
		if t, err := time.Parse(layout, arg); err == nil {
			return ledger.FormatTimestamp(t), nil
		}
	}
	return "", ledger.Validationf("unparseable date %q, expected ISO 8601", arg)
}
