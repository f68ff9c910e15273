// Package auth provides authentication primitives (JWT issuance, stateful
// repositories, HTTP helpers) for identity registration, login, token refresh,
// and revocation.
//
// Revocation strategies:
//   - StrategyRefreshRegistry persists every refresh token and revokes the
//     record at logout. Access tokens stay stateless and age out on their own
//     short TTL.
//   - StrategyBlacklist issues only access tokens and blacklists the presented
//     token at logout. The guard consults the blacklist before trusting any
//     claim, so revocation is immediate. Blacklist entries carry the token's
//     own expiry and are pruned once the signature check would reject the
//     token anyway.
//
// Both strategies sit behind the SessionStore interface, with bun backed
// stores for either variant and a Redis store for the blacklist.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther to describe
//     login, refresh, and logout events. Sinks run best-effort (errors are
//     logged) so you can forward to a database or queue without blocking
//     authentication.
package auth
