// Package services implements the client for the external management server.
//
// # Backend Interface
//
// [Backend] is the whole contract the dashboard relies on: generic entity CRUD, audio URL resolution,
// audio upload and login. The session, the dashboard gateway, the backup engine and the alert watcher
// all depend on the interface, never on the HTTP type, so tests substitute an in-memory double.
//
// # External Server
//
// [ExternalServer] speaks the backend's wire format:
//
//	GET    {base}{api}/{entity}          → JSON array
//	POST   {base}{api}/{entity}          → created JSON record
//	PUT    {base}{api}/{entity}/{id}     → updated JSON record
//	DELETE {base}{api}/{entity}/{id}     → empty success
//	POST   {base}{api}/login             {username, password_hash} → {user: {...}}
//	POST   {base}{api}/upload_audio      multipart "audio" → {url}
//	       {base}{audio}/{name}          audio file URL (no request is made)
//
// Each call makes exactly one round trip. There is no retry, backoff, caching or deduplication of
// concurrent identical requests; cancellation comes only from the caller's context and the optional
// client timeout from config.
//
// # Error Handling
//
// Failures are normalized into the typed errors of the shared package:
//   - [shared.NetworkError] : the request never got a response
//   - [shared.RemoteError] : non-2xx status, carrying the status text
//   - [shared.AuthError] : login rejected
//   - [shared.ParseError] : response body is not JSON
//   - [shared.UploadError] : wraps any of the above for uploads
package services
