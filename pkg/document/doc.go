// Package document defines the registration document sent to the remote API
// and its wire encoding.
//
// Date-only fields use *Date: a set date encodes as "YYYY-MM-DD" and a nil
// one as JSON null. Documents carry no business validation.
package document
