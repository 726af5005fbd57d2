// Package audit defines the audit event model and sink implementations used
// by the goSession dispatcher. It is private to the module; the root package
// re-exports the types callers need.
package audit
