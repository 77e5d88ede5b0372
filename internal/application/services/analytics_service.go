package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/errors"
)

// AnalyticsService runs ad-hoc read-only SQL for reporting. Queries are
// parsed before execution: single SELECT statements only, tables restricted
// to the analytics whitelist, credential columns rejected, and a row limit
// injected when the query has none.
type AnalyticsService struct {
	db *database.Connection
}

func NewAnalyticsService(db *database.Connection) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// QueryResult is the tabular result of an analytics query
type QueryResult struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
	Count   int                      `json:"count"`
}

// tableCollector walks the AST recording referenced tables and columns
type tableCollector struct {
	tables  []string
	columns []string
}

func (c *tableCollector) Enter(n ast.Node) (ast.Node, bool) {
	switch node := n.(type) {
	case *ast.TableName:
		c.tables = append(c.tables, node.Name.L)
	case *ast.ColumnName:
		c.columns = append(c.columns, node.Name.L)
	}
	return n, false
}

func (c *tableCollector) Leave(n ast.Node) (ast.Node, bool) {
	return n, true
}

// ValidateQuery checks a query against the analytics policy. Returns the
// query to execute, with a LIMIT injected when absent.
func (s *AnalyticsService) ValidateQuery(query string) (string, error) {
	query = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if query == "" {
		return "", errors.NewValidationError("query", "Query is required")
	}

	p := parser.New()
	stmt, err := p.ParseOneStmt(query, "", "")
	if err != nil {
		return "", errors.NewValidationError("query", fmt.Sprintf("Invalid SQL: %v", err))
	}

	selectStmt, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return "", errors.NewValidationError("query", "Only single SELECT statements are allowed")
	}

	collector := &tableCollector{}
	selectStmt.Accept(collector)

	if len(collector.tables) == 0 {
		return "", errors.NewValidationError("query", "Query must reference at least one table")
	}
	for _, table := range collector.tables {
		if !constants.AnalyticsTables[table] {
			return "", errors.NewValidationError("query", fmt.Sprintf("Table not allowed: %s", table))
		}
	}
	for _, column := range collector.columns {
		if constants.AnalyticsDeniedColumns[column] {
			return "", errors.NewValidationError("query", fmt.Sprintf("Column not allowed: %s", column))
		}
	}

	if selectStmt.Limit == nil {
		query = fmt.Sprintf("%s LIMIT %d", query, constants.AnalyticsRowLimit)
	}
	return query, nil
}

// RunQuery validates and executes an analytics query
func (s *AnalyticsService) RunQuery(ctx context.Context, query string) (*QueryResult, error) {
	validated, err := s.ValidateQuery(query)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, validated)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Columns: columns,
		Rows:    make([]map[string]interface{}, 0),
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			// The MySQL driver returns strings and blobs as []byte
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Count = len(result.Rows)
	return result, nil
}
