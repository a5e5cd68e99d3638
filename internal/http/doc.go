// Package http serves the DevSkillTracker dashboard and its JSON API.
//
// Pages:
//   - GET /login: login form, or a loading indicator until the identity gate has
//     observed its first session event. POST /login signs in, POST /logout signs out.
//   - GET /?view=developers|add-developer|settings: the dashboard. Unknown or missing
//     views fall back to the developer directory.
//   - POST /developers: registration form actions selected by the action field
//     (add-skill, reset, save) or a remove_skill value.
//
// JSON API:
//   - POST /api/session, DELETE /api/session: sign in and out, token returned in the body,
//     the X-Session-Token header and the session_token cookie.
//   - GET /api/session, GET /api/developers, POST /api/developers, GET /api/skills.
//
// Every route except login, /healthz and /metrics requires a session token, from the
// session_token cookie or an Authorization: Bearer header, that the identity gate has
// authorized.
package http
