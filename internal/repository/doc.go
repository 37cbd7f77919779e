// Package repository holds the MySQL data access layer. Repositories
// return booking.ErrNotFound (possibly wrapped) for rows that do not
// exist or belong to a different tenant; higher layers translate that
// into their own error taxonomy. All queries are tenant-scoped: no
// statement in this package touches a row without a tenant_id predicate,
// except the background sweeps that operate across tenants by design.
package repository
