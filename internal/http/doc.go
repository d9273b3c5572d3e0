// Package http exposes the hour bank over JSON.
//
// The router serves these endpoints:
//   - POST /badge: resolves a badge. Body: {"badge"}. Response: {"employee_id","name"}.
//   - POST /access: checks an access code. Body: {"employee_id","code"}. Response:
//     {"employee_id","name","token","expires_at"}; the token is also set as the
//     `session_token` cookie. Wrong codes answer 401 with {"attempt","max_attempts"};
//     a lockout answers 403 with {"unlock_token"}. Both login routes are throttled
//     per client address.
//   - GET /employees/{id}/statement: balance and history for the employee holding
//     the session token (bearer header or cookie).
//   - GET /admin/employees, POST /admin/employees, POST /admin/unlock,
//     GET /admin/entries, POST /admin/entries, GET /admin/entries/export: the back
//     office, authenticated with the `X-Admin-Key` header. The export is an XLSX workbook.
//   - GET /healthz: 204 when storage answers a ping, 503 otherwise.
//
// Error bodies carry a Portuguese `message` and, where useful, a stable `error_code`
// and per-field `errors`. DTOs live next to their handlers.
package http
