// Package password implements Argon2id password hashing for Atrium staff
// accounts.
//
// Hashes use the PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$key) so parameters travel with the
// hash and can be tightened without invalidating stored credentials. Verify
// refuses hashes whose embedded parameters exceed the configured cost by a
// wide margin, so an attacker-supplied hash string cannot drive pathological
// resource usage.
package password
