// Package server provides HTTP routing, route guards and the dashboard gateway.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] runs in the order it is added: the first one added is the outermost wrapper and sees the
// request first.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally, with method-aware patterns such as
// "GET /api/{section}".
//
// # Route Guards
//
// [RequireAuth] and [RequirePermission] check an [Authenticator] before the wrapped handler runs. A refused
// request is redirected with 302 Found to [DashboardPath]; callers cannot tell "not signed in" from
// "not allowed". [RequireSection] reads the permission from a path wildcard and answers 404 for unknown
// sections. The gateway's record routes also answer 404 for sections with no backend entity.
//
// # Dashboard Gateway
//
// [Dashboard] implements [Handler] and exposes the backend to local clients as JSON:
//
//	POST   /login                credentials as JSON or form fields
//	POST   /logout
//	GET    /dashboard            session status, never guarded
//	GET    /api/{section}        list records (auth + section permission)
//	POST   /api/{section}        create a record
//	PUT    /api/{section}/{id}   update a record
//	DELETE /api/{section}/{id}   delete a record
//	GET    /audio                upload receipts
//	POST   /audio                multipart upload, field "audio"
//	GET    /audio/{name}         302 to where the backend serves the file
//	GET    /settings/alerts      sound alert preferences
//	PUT    /settings/alerts
//
// Sections use dashboard permission names ("marketplace-orders") and are translated to backend entity
// names ("marketplace_orders"). Backend 4xx responses keep their status; other failures become 502
// with the user-facing message of the error.
//
// [RequestLogger] logs each request with an id taken from X-Request-ID or generated.
package server
