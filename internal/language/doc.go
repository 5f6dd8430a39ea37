// Package language normalizes requested audio languages onto the fixed set
// the embed host understands (Hindi, English, Bengali, Tamil, Telugu).
//
// Input may be a display name in any case, an ISO 639 code, or a BCP-47 tag.
// Anything else maps to Hindi; normalization never returns an error.
package language
