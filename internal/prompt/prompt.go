// Package prompt builds the generation requests sent to the language
// model: a base request for the first attempt and an error-recovery
// request for retries.
package prompt

import (
	"fmt"
	"strings"
)

// fewShotExamples are example question/SQL pairs included in every base
// prompt to anchor the output format.
const fewShotExamples = `EXAMPLE QUERIES AND THEIR SQL:

Example 1 - Simple Count:
Question: "How many customers do we have?"
SQL: SELECT COUNT(*) AS total_customers FROM customers;

Example 2 - Basic Select with Filter:
Question: "Show me all orders from today"
SQL: SELECT * FROM orders WHERE DATE(order_date) = CURRENT_DATE;

Example 3 - Join with Aggregation:
Question: "Who are the top 5 customers by spending?"
SQL:
SELECT
    c.customer_id,
    c.first_name || ' ' || c.last_name AS customer_name,
    SUM(o.total) AS total_spent
FROM customers c
JOIN orders o ON c.customer_id = o.customer_id
GROUP BY c.customer_id, c.first_name, c.last_name
ORDER BY total_spent DESC
LIMIT 5;

Example 4 - Group By with Having:
Question: "Which cities have more than 2 orders?"
SQL:
SELECT
    sa.city,
    COUNT(o.order_id) AS order_count
FROM orders o
JOIN shipping_addresses sa ON o.shipping_address_id = sa.address_id
GROUP BY sa.city
HAVING COUNT(o.order_id) > 2
ORDER BY order_count DESC;

Example 5 - Date Range Filter:
Question: "Orders from last week"
SQL:
SELECT * FROM orders
WHERE order_date >= CURRENT_DATE - INTERVAL '7 days'
ORDER BY order_date DESC;

Example 6 - Time-based Comparison:
Question: "Compare this month vs last month sales"
SQL:
SELECT
    DATE_TRUNC('month', order_date) AS month,
    COUNT(*) AS order_count,
    SUM(total) AS total_sales
FROM orders
WHERE order_date >= DATE_TRUNC('month', CURRENT_DATE - INTERVAL '1 month')
GROUP BY DATE_TRUNC('month', order_date)
ORDER BY month;`

// Base builds the first-attempt generation request from the schema
// context and the user's question.
func Base(dialect, schemaContext, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert %s database assistant. Your task is to convert natural language questions into valid %s SQL queries.\n\n", dialect, dialect)
	b.WriteString(schemaContext)
	b.WriteString("\n\n")

	b.WriteString(`IMPORTANT RULES:
1. Generate ONLY SELECT queries (no INSERT, UPDATE, DELETE, DROP, etc.)
2. Always use proper table aliases for readability
3. Use appropriate JOINs when querying multiple tables
4. Handle NULL values appropriately
5. Add reasonable LIMIT clauses unless the user specifies otherwise
6. Use aggregate functions (COUNT, SUM, AVG, MAX, MIN) when appropriate
7. Include ORDER BY for better readability when relevant
8. Use DISTINCT when needed to avoid duplicates
9. Always use proper column names from the schema above

DATE/TIME HANDLING:
- Today: DATE(column_name) = CURRENT_DATE
- Yesterday: DATE(column_name) = CURRENT_DATE - INTERVAL '1 day'
- Last 7 days: column_name >= CURRENT_DATE - INTERVAL '7 days'
- This month: DATE_TRUNC('month', column_name) = DATE_TRUNC('month', CURRENT_DATE)
- Last month: DATE_TRUNC('month', column_name) = DATE_TRUNC('month', CURRENT_DATE - INTERVAL '1 month')

`)
	b.WriteString(fewShotExamples)
	b.WriteString(`

RESPONSE FORMAT:
- Return ONLY the SQL query
- Do NOT include explanations, comments, or markdown formatting
- Do NOT wrap the query in code fences
- End with a semicolon

Now, convert the following question to SQL:`)

	fmt.Fprintf(&b, "\n\nQuestion: %s\n\nSQL:", question)

	return b.String()
}

// Recovery builds the retry request: it carries the original question,
// the statement that failed, and the database or generator error so the
// model can correct the fault while still answering the question.
func Recovery(dialect, schemaContext, question, failedSQL, errorMessage string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert %s database assistant. A previous SQL query failed and needs to be fixed.\n\n", dialect)
	b.WriteString(schemaContext)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "ORIGINAL USER QUESTION:\n%s\n\n", question)
	fmt.Fprintf(&b, "PREVIOUS SQL (FAILED):\n%s\n\n", failedSQL)
	fmt.Fprintf(&b, "ERROR MESSAGE:\n%s\n\n", errorMessage)

	b.WriteString(`Please generate a corrected SQL query that:
1. Fixes the error mentioned above
2. Still answers the original user question
3. Follows all the same rules as before (SELECT only, proper JOINs, etc.)

Return ONLY the corrected SQL query, no explanations.`)

	return b.String()
}
