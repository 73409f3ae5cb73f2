// Package store provides the Redis-backed persistence for accounts and the
// action-token resend cooldown.
//
// Accounts are stored as one JSON record per account plus three derived
// indexes: a lowercased email index, a hashed refresh-token index, and a set
// of admin account ids. The indexes are maintained by Create, Update, and
// Delete; readers never scan.
package store
