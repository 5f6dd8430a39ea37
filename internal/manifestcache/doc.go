// Package manifestcache keeps resolved manifests in memory for a fixed TTL so
// repeat requests skip the browser. Contents are lost on restart.
package manifestcache
