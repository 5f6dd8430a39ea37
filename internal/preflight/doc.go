// Package preflight provides readiness checks for the filesystem paths and
// external services streamscout depends on.
//
// `streamscout serve` runs RunAll at startup and logs failures as warnings;
// the server still starts because TMDB or the browser may recover later.
// `streamscout preflight` prints the same results and fails when any check does.
package preflight
