package sqlguard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		reason string // empty means safe
	}{
		{
			name: "simple select",
			sql:  "SELECT * FROM customers;",
		},
		{
			name: "select with filter",
			sql:  "SELECT name, email FROM customers WHERE id = 1;",
		},
		{
			name: "aggregate",
			sql:  "SELECT COUNT(*) FROM orders;",
		},
		{
			name: "multiline join",
			sql: `
				SELECT c.first_name, COUNT(o.order_id)
				FROM customers c
				LEFT JOIN orders o ON c.customer_id = o.customer_id
				GROUP BY c.first_name;
			`,
		},
		{
			name: "lowercase select",
			sql:  "select id from orders",
		},
		{
			name: "keyword as identifier substring",
			sql:  "SELECT dropped_at, updated_count FROM audit_log;",
		},
		{
			name: "safe comment",
			sql:  "SELECT id FROM orders -- most recent first\nORDER BY id DESC;",
		},
		{
			name:   "empty",
			sql:    "",
			reason: "empty query",
		},
		{
			name:   "whitespace only",
			sql:    "   \n\t  ",
			reason: "empty query",
		},
		{
			name:   "drop table",
			sql:    "DROP TABLE customers;",
			reason: "dangerous keyword: DROP",
		},
		{
			name:   "delete",
			sql:    "DELETE FROM orders WHERE id = 1;",
			reason: "dangerous keyword: DELETE",
		},
		{
			name:   "update",
			sql:    "UPDATE customers SET name = 'test';",
			reason: "dangerous keyword: UPDATE",
		},
		{
			name:   "insert",
			sql:    "INSERT INTO customers VALUES (1, 'test');",
			reason: "dangerous keyword: INSERT",
		},
		{
			name:   "mixed case keyword",
			sql:    "SELECT * FROM t WHERE x = 1; DrOp TABLE t;",
			reason: "dangerous keyword: DROP",
		},
		{
			name:   "keyword hidden in comment is stripped but splice caught",
			sql:    "SELECT * FROM t; /* harmless */ TRUNCATE t;",
			reason: "dangerous keyword: TRUNCATE",
		},
		{
			name:   "not a select",
			sql:    "SHOW TABLES;",
			reason: "must start with SELECT",
		},
		{
			name:   "with clause rejected",
			sql:    "WITH x AS (SELECT 1) SELECT * FROM x;",
			reason: "must start with SELECT",
		},
		{
			name:   "statement splice without keywords",
			sql:    "SELECT 1; SELECT 2;",
			reason: "multiple statements not allowed",
		},
		{
			name:   "semicolon then line comment",
			sql:    "SELECT * FROM t; -- tail",
			reason: "potential injection pattern",
		},
		{
			name:   "semicolon inside line comment",
			sql:    "SELECT * FROM t -- hidden; splice\nWHERE x = 1",
			reason: "potential injection pattern",
		},
		{
			name:   "semicolon inside block comment",
			sql:    "SELECT * FROM t /* hidden; splice */ WHERE x = 1",
			reason: "potential injection pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.sql)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var unsafeErr *UnsafeError
			require.True(t, errors.As(err, &unsafeErr))
			assert.Equal(t, tt.reason, unsafeErr.Reason)
		})
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "line comment",
			in:   "SELECT 1 -- trailing\nFROM t",
			out:  "SELECT 1 \nFROM t",
		},
		{
			name: "block comment",
			in:   "SELECT /* inline */ 1",
			out:  "SELECT  1",
		},
		{
			name: "block comment spanning lines",
			in:   "SELECT 1 /* a\nb\nc */ FROM t",
			out:  "SELECT 1  FROM t",
		},
		{
			name: "non greedy block match",
			in:   "SELECT /* one */ 1, /* two */ 2",
			out:  "SELECT  1,  2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, StripComments(tt.in))
		})
	}
}
