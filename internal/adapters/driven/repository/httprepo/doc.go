// Package httprepo queries remote package repositories over HTTP.
//
// Each repository becomes one driven.RecordSource. Queries are started
// concurrently, bounded by Config.Concurrency and throttled by a token
// bucket, but each source yields its records in the order the
// repository sent them.
package httprepo
