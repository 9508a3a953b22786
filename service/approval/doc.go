// Package approval evaluates department approval chains against change
// requests. On submission it materialises an immutable ordered snapshot of
// approval steps from the applicant department's chain; afterwards it
// derives, at any instant, the single step that may act and applies
// decisions strictly in step order.
package approval
