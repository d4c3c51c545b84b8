// Package models defines the domain types shared by the API client, the session and the local settings store.
//
// The package contains three groups of types:
//
// 1. Access control: the closed [Permission] set, [Role] and the [User] returned by the backend's login.
// An admin [User] implicitly holds every permission regardless of its [PermissionSet].
//
// 2. Backend payloads: [Record] is an opaque JSON object whose schema belongs to the remote backend.
// [ParseCostItems] decodes the product cost breakdown the backend stores as a JSON string.
//
// 3. Local preferences: [AlertSettings] and [AudioFile] persisted by the repositories package.
package models
