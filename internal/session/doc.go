// Package session holds who is signed in to the dashboard and what they may open.
//
// A [Session] starts anonymous. [Session.Login] asks the backend to verify the credentials and,
// when it returns an account, stores the user and its permissions. Nothing is remembered across
// process restarts and there is no local fallback account: the backend is the only authority.
//
// Permission checks follow two rules. Admins may open every section. Everyone else may open
// exactly the sections named in their permission set.
package session
